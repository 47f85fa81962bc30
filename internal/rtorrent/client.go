package rtorrent

import (
	"fmt"
	"net/url"
	"strconv"

	"fetcharr/internal/config"

	"github.com/kolo/xmlrpc"
)

// Client talks to rTorrent's XML-RPC endpoint. IDs handed out by List are
// info hashes and are passed back verbatim to the per-field getters.
type Client struct {
	rpc *xmlrpc.Client
}

func New(cfg config.RTorrent) (*Client, error) {
	u := url.URL{
		Scheme: "https",
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   cfg.Path,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Pass)
	}

	rpc, err := xmlrpc.NewClient(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create xmlrpc client: %w", err)
	}

	return &Client{rpc: rpc}, nil
}

// URL renders the endpoint with the password omitted, for logging.
func URL(cfg config.RTorrent) string {
	u := url.URL{
		Scheme: "https",
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   cfg.Path,
	}
	if cfg.User != "" {
		u.User = url.User(cfg.User)
	}

	return u.String()
}

func (c *Client) List() ([]string, error) {
	var ids []string
	if err := c.rpc.Call("download_list", []any{"", "main"}, &ids); err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}

	return ids, nil
}

func (c *Client) Name(id string) (string, error) {
	return c.getString("d.name", id)
}

func (c *Client) Label(id string) (string, error) {
	return c.getString("d.custom1", id)
}

func (c *Client) Directory(id string) (string, error) {
	return c.getString("d.directory", id)
}

func (c *Client) Hash(id string) (string, error) {
	return c.getString("d.hash", id)
}

func (c *Client) Completed(id string) (bool, error) {
	var complete int64
	if err := c.rpc.Call("d.complete", id, &complete); err != nil {
		return false, fmt.Errorf("failed to call d.complete for %s: %w", id, err)
	}

	return complete != 0, nil
}

func (c *Client) SetLabel(id, label string) error {
	var ret int64
	if err := c.rpc.Call("d.custom1.set", []any{id, label}, &ret); err != nil {
		return fmt.Errorf("failed to set label on %s: %w", id, err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) getString(method, id string) (string, error) {
	var s string
	if err := c.rpc.Call(method, id, &s); err != nil {
		return "", fmt.Errorf("failed to call %s for %s: %w", method, id, err)
	}

	return s, nil
}
