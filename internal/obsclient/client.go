// Package obsclient adapts the goobs obs-websocket v5 client to the scene
// operations used by scenesync.
package obsclient

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andreykaipov/goobs"
	"github.com/andreykaipov/goobs/api/requests/inputs"
	"github.com/andreykaipov/goobs/api/requests/scenes"
	"github.com/gorilla/websocket"

	"obs-stream-sync/internal/scenesync"
)

// Options configures the connection to OBS.
type Options struct {
	Addr     string // host:port
	Password string
	// Timeout bounds the dial, the websocket handshake and every request.
	Timeout time.Duration
}

// Client is a connected OBS remote-control session.
type Client struct {
	obs  *goobs.Client
	addr string
	log  *slog.Logger
}

var _ scenesync.Controller = (*Client)(nil)

// Connect dials OBS and completes the obs-websocket identify handshake.
// There is no reconnect: callers treat a failure here as fatal.
func Connect(opts Options, log *slog.Logger) (*Client, error) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.Timeout,
		NetDial:          (&net.Dialer{Timeout: opts.Timeout}).Dial,
	}

	goobsOpts := []goobs.Option{
		goobs.WithPassword(opts.Password),
		goobs.WithDialer(dialer),
	}
	if opts.Timeout > 0 {
		goobsOpts = append(goobsOpts, goobs.WithResponseTimeout(opts.Timeout))
	}

	c, err := goobs.New(opts.Addr, goobsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to obs at %s: %w", opts.Addr, err)
	}
	log.Info("connected to obs", slog.String("addr", opts.Addr))
	return &Client{obs: c, addr: opts.Addr, log: log}, nil
}

// Close ends the session.
func (c *Client) Close() error {
	if err := c.obs.Disconnect(); err != nil {
		return fmt.Errorf("disconnect from obs at %s: %w", c.addr, err)
	}
	c.log.Info("disconnected from obs", slog.String("addr", c.addr))
	return nil
}

// ListScenes returns the names of every scene in the current collection.
func (c *Client) ListScenes() ([]string, error) {
	resp, err := c.obs.Scenes.GetSceneList()
	if err != nil {
		return nil, fmt.Errorf("get scene list: %w", err)
	}
	names := make([]string, 0, len(resp.Scenes))
	for _, s := range resp.Scenes {
		names = append(names, s.SceneName)
	}
	return names, nil
}

// CreateScene adds an empty scene.
func (c *Client) CreateScene(name string) error {
	_, err := c.obs.Scenes.CreateScene(scenes.NewCreateSceneParams().WithSceneName(name))
	return err
}

// RemoveScene deletes a scene and its scene items.
func (c *Client) RemoveScene(name string) error {
	_, err := c.obs.Scenes.RemoveScene(scenes.NewRemoveSceneParams().WithSceneName(name))
	return err
}

// CreateInput creates an input and adds it, enabled, to scene.
func (c *Client) CreateInput(scene string, in scenesync.Input) error {
	params := inputs.NewCreateInputParams().
		WithSceneName(scene).
		WithInputName(in.Name).
		WithInputKind(in.Kind).
		WithInputSettings(in.Settings).
		WithSceneItemEnabled(true)
	_, err := c.obs.Inputs.CreateInput(params)
	return err
}

// SetInputAudioMonitorType sets how OBS monitors the input's audio.
func (c *Client) SetInputAudioMonitorType(input, monitorType string) error {
	params := inputs.NewSetInputAudioMonitorTypeParams().
		WithInputName(input).
		WithMonitorType(monitorType)
	_, err := c.obs.Inputs.SetInputAudioMonitorType(params)
	return err
}
