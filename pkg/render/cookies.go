// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package render

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/kraklabs/cloneforge/pkg/mirror"
)

// CollectBrowserCookies launches a throwaway headless session, navigates to
// rootURL so the origin can set its cookies the way a real visit would, and
// returns them in the Netscape-jar shape the Mirror Driver already accepts
// via --load-cookies. It is the browser-backed counterpart to a user
// supplying --cookies-file by hand.
func CollectBrowserCookies(ctx context.Context, rootURL string) ([]mirror.Cookie, error) {
	path, has := launcher.LookPath()
	if !has {
		return nil, fmt.Errorf("no local browser found to import cookies from")
	}

	controlURL, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	_, _ = page.EvalOnNewDocument(stealth.JS)
	if err := page.Navigate(rootURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", rootURL, err)
	}
	_ = page.WaitLoad()

	raw, err := proto.NetworkGetAllCookies{}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	out := make([]mirror.Cookie, 0, len(raw.Cookies))
	for _, c := range raw.Cookies {
		expires := time.Time{}
		if c.Expires > 0 {
			expires = time.Unix(int64(c.Expires), 0).UTC()
		}
		out = append(out, mirror.Cookie{
			Domain:  c.Domain,
			Path:    c.Path,
			Secure:  c.Secure,
			Expires: expires,
			Name:    c.Name,
			Value:   c.Value,
		})
	}
	return out, nil
}
