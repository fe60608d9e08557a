package remote

import (
	"context"
	"net/http"
	"net/rpc"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"inkview/pkg/proto"
)

// Proxy serves screen over net/rpc on srv for the application's lifetime.
func Proxy(screen proto.Screen, srv *http.Server, lifecycle fx.Lifecycle, logger *zap.Logger) error {
	handler, err := Handler(NewService(screen, logger))
	if err != nil {
		return err
	}
	srv.Handler = handler

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("serve")
				}
			}()
			logger.With(zap.String("addr", srv.Addr)).Info("proxy-listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return nil
}

// Handler registers svc on a fresh rpc server reachable at the default
// net/rpc HTTP path.
func Handler(svc *Service) (http.Handler, error) {
	server := rpc.NewServer()
	if err := server.Register(svc); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)
	return mux, nil
}

func NewService(screen proto.Screen, logger *zap.Logger) *Service {
	return &Service{screen: screen, logger: logger}
}

type Service struct {
	screen proto.Screen
	logger *zap.Logger
}

func (s *Service) Size(_ EmptyRequest, resp *SizeResponse) error {
	resp.Width, resp.Height = s.screen.Size()
	return nil
}

// Refresh copies the shipped rows into the screen buffer, then refreshes.
func (s *Service) Refresh(req *RefreshRequest, _ *EmptyResponse) error {
	buf := s.screen.Buffer()
	if buf == nil {
		return proto.ResourceError("refresh", errClosed)
	}

	r := req.Rect
	if r.Empty() {
		r = buf.Bounds()
	}
	if !r.In(buf.Bounds()) {
		return proto.RangeError("refresh", "rect %v outside screen %v", r, buf.Bounds())
	}
	if len(req.Rows) != r.Dy() {
		return proto.RangeError("refresh", "%d rows for rect %v", len(req.Rows), r)
	}

	from, to := rowSpan(r.Min.X, r.Max.X)
	for i, row := range req.Rows {
		off := (r.Min.Y+i)*buf.Pitch + from
		copy(buf.Pix[off:off+to-from], row)
	}

	s.logger.With(zap.Stringer("rect", r), zap.Bool("partial", req.Partial)).Debug("remote-refresh")
	return s.screen.Refresh(req.Rect, req.Partial)
}

func (s *Service) SetOrientation(mode int, _ *EmptyResponse) error {
	return s.screen.SetOrientation(mode)
}

func (s *Service) Orientation(_ EmptyRequest, resp *OrientationResponse) error {
	mode, err := s.screen.Orientation()
	resp.Mode = mode
	return err
}

// Reopen is only served for screens that can reopen themselves.
func (s *Service) Reopen(_ EmptyRequest, resp *SizeResponse) error {
	r, ok := s.screen.(interface{ Reopen() error })
	if !ok {
		return proto.ConfigurationError("reopen", "screen cannot reopen itself")
	}
	if err := r.Reopen(); err != nil {
		return err
	}
	resp.Width, resp.Height = s.screen.Size()
	return nil
}
