package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
)

// client talks to the public api of a node.
type client struct {
	rc *resty.Client
}

func newClient(url string) *client {
	rc := resty.New().
		SetBaseURL(url).
		SetHeader("Accept", "application/json")

	return &client{rc: rc}
}

// get performs a GET and returns the body when the status matches one of
// the accepted codes.
func (c *client) get(path string, accept ...int) ([]byte, int, error) {
	resp, err := c.rc.R().Get(path)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", path, err)
	}

	return check(resp, accept)
}

// post sends the body as JSON.
func (c *client) post(path string, body any, accept ...int) ([]byte, int, error) {
	resp, err := c.rc.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, 0, fmt.Errorf("post %s: %w", path, err)
	}

	return check(resp, accept)
}

func check(resp *resty.Response, accept []int) ([]byte, int, error) {
	for _, code := range accept {
		if resp.StatusCode() == code {
			return resp.Body(), resp.StatusCode(), nil
		}
	}

	var er struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &er); err == nil && er.Error != "" {
		return nil, resp.StatusCode(), fmt.Errorf("%s: %s", resp.Status(), er.Error)
	}

	return nil, resp.StatusCode(), fmt.Errorf("%s: %s", resp.Status(), resp.String())
}

// render writes the JSON document indented.
func render(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	_, err := buf.WriteTo(w)
	return err
}
