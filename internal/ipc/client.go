package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Rostersync.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Audit runs the unresolved-record audit, optionally forcing a report.
func (c *Client) Audit(force bool) (*AuditResponse, error) {
	var resp AuditResponse
	if err := c.client.Call("Rostersync.Audit", AuditRequest{Force: force}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sweep runs a full linking sweep.
func (c *Client) Sweep() (*SweepResponse, error) {
	var resp SweepResponse
	if err := c.client.Call("Rostersync.Sweep", SweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Records lists roster records.
func (c *Client) Records(unresolvedOnly bool) (*RecordsResponse, error) {
	var resp RecordsResponse
	if err := c.client.Call("Rostersync.Records", RecordsRequest{UnresolvedOnly: unresolvedOnly}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutRecord upserts a roster record.
func (c *Client) PutRecord(rec Record) (*PutRecordResponse, error) {
	var resp PutRecordResponse
	if err := c.client.Call("Rostersync.PutRecord", PutRecordRequest{Record: rec}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotify sends a test notification through the daemon.
func (c *Client) TestNotify() (*TestNotifyResponse, error) {
	var resp TestNotifyResponse
	if err := c.client.Call("Rostersync.TestNotify", TestNotifyRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Rostersync.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
