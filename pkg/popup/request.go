// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup

import (
	"net/url"
	"strconv"
	"strings"

	poperrors "github.com/stacklok/popup-login/pkg/errors"
	"github.com/stacklok/popup-login/pkg/query"
)

// AuthRequest is the query sent to the authorize endpoint.
type AuthRequest struct {
	ClientID    string
	RedirectURI string
	// Extra is appended after client_id and redirect_uri in its own order.
	Extra *query.Params
}

// Params returns the request as ordered query parameters.
func (r AuthRequest) Params() *query.Params {
	p := query.NewParams("client_id", r.ClientID)
	if r.RedirectURI != "" {
		p.Set("redirect_uri", r.RedirectURI)
	}
	for _, k := range r.Extra.Keys() {
		p.Set(k, r.Extra.Get(k))
	}
	return p
}

// WindowOptions describes the popup window.
type WindowOptions struct {
	Height int
	Width  int
	// Features holds any further window feature flags.
	Features *query.Params
}

// Params returns the options as ordered feature flags. Zero dimensions are left out.
func (o WindowOptions) Params() *query.Params {
	p := query.NewParams()
	if o.Height > 0 {
		p.Set("height", strconv.Itoa(o.Height))
	}
	if o.Width > 0 {
		p.Set("width", strconv.Itoa(o.Width))
	}
	for _, k := range o.Features.Keys() {
		p.Set(k, o.Features.Get(k))
	}
	return p
}

// String returns the window feature string, e.g. "height=800,width=1200".
func (o WindowOptions) String() string {
	return query.EncodeDelimited(o.Params(), query.FeatureDelimiter)
}

// BuildURL appends the encoded request to authorizeURL.
func BuildURL(authorizeURL string, req AuthRequest) (string, error) {
	if req.ClientID == "" {
		return "", poperrors.NewInvalidArgumentError("client ID is required", nil)
	}
	u, err := url.Parse(authorizeURL)
	if err != nil {
		return "", poperrors.NewInvalidArgumentError("invalid authorize URL", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", poperrors.NewInvalidArgumentError("authorize URL must be absolute: "+authorizeURL, nil)
	}

	sep := "?"
	switch {
	case strings.HasSuffix(authorizeURL, "?"), strings.HasSuffix(authorizeURL, "&"):
		sep = ""
	case strings.Contains(authorizeURL, "?"):
		sep = "&"
	}
	return authorizeURL + sep + query.Encode(req.Params()), nil
}
