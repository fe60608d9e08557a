package remote

import (
	"image"
	"net/rpc"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
)

var errClosed = errors.New("screen closed")

var _ proto.Screen = (*Client)(nil)

// Dial connects to a Proxy and mirrors its screen in a local buffer.
func Dial(addr string, logger *zap.Logger) (*Client, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, proto.ResourceError("dial", err)
	}

	c := &Client{rpc: client, logger: logger.With(zap.String("remote", addr))}
	var size SizeResponse
	if err := client.Call("Service.Size", EmptyRequest{}, &size); err != nil {
		_ = client.Close()
		return nil, proto.ResourceError("dial", err)
	}
	if err := c.allocate(size); err != nil {
		_ = client.Close()
		return nil, err
	}
	return c, nil
}

type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
	buf    *bitmap.Gray4
}

func (c *Client) allocate(size SizeResponse) error {
	buf, err := bitmap.Allocate(size.Width, size.Height, 0)
	if err != nil {
		return proto.ConfigurationError("dial", "remote size: %v", err)
	}
	c.buf = buf
	c.logger.With(zap.Int("width", size.Width), zap.Int("height", size.Height)).Debug("remote-screen")
	return nil
}

func (c *Client) closed() bool {
	return c.buf == nil || c.buf.Released()
}

func (c *Client) Size() (int, int) {
	if c.closed() {
		return 0, 0
	}
	return c.buf.Width, c.buf.Height
}

func (c *Client) Buffer() *bitmap.Gray4 {
	if c.closed() {
		return nil
	}
	return c.buf
}

// Refresh ships the rows covering rect and refreshes them remotely.
func (c *Client) Refresh(rect image.Rectangle, partial bool) error {
	if c.closed() {
		return proto.ResourceError("refresh", errClosed)
	}

	r := c.buf.Bounds()
	if !rect.Empty() {
		if r = rect.Intersect(r); r.Empty() {
			return proto.RangeError("refresh", "rect %v outside screen %v", rect, c.buf.Bounds())
		}
	}

	from, to := rowSpan(r.Min.X, r.Max.X)
	rows := make([][]byte, 0, r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*c.buf.Pitch + from
		rows = append(rows, c.buf.Pix[off:off+to-from])
	}

	return c.rpc.Call("Service.Refresh", &RefreshRequest{Rect: r, Partial: partial, Rows: rows}, nil)
}

func (c *Client) SetOrientation(mode int) error {
	if !proto.ValidOrientation(mode) {
		return proto.RangeError("set-orientation", "wrong rotation mode %d", mode)
	}
	return c.rpc.Call("Service.SetOrientation", mode, nil)
}

func (c *Client) Orientation() (int, error) {
	var resp OrientationResponse
	err := c.rpc.Call("Service.Orientation", EmptyRequest{}, &resp)
	return resp.Mode, err
}

// Reopen reopens the remote screen and resizes the local buffer to match.
func (c *Client) Reopen() error {
	var size SizeResponse
	if err := c.rpc.Call("Service.Reopen", EmptyRequest{}, &size); err != nil {
		return err
	}
	if c.buf != nil {
		c.buf.Release()
	}
	return c.allocate(size)
}

func (c *Client) Close() error {
	if c.closed() {
		return nil
	}
	c.buf.Release()
	return c.rpc.Close()
}
