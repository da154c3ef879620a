package httpds

import (
	"context"
	"io"
)

// Remote is a datasource.Source reading a workbook from a URL.
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds url to client.
func NewRemote(client *Client, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Name returns the URL's file name so loaders can be picked by extension.
func (r *Remote) Name() string { return NameFromURL(r.url) }

// Open fetches the workbook. The body is streamed; the caller closes it.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
