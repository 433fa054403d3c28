package gateway

import (
	"context"
	"errors"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// GatewayRPC implements the go-plugin Plugin interface for gateways.
type GatewayRPC struct {
	plugin.Plugin
	Impl Gateway
}

// Server returns an RPC server for this gateway.
func (p *GatewayRPC) Server(*plugin.MuxBroker) (any, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this gateway.
func (p *GatewayRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &RPCClient{client: c}, nil
}

// LookupArgs is the request for FindByName.
type LookupArgs struct {
	Token Token
	Name  string
}

// LookupReply is the response for FindByName.
type LookupReply struct {
	Plugin   Plugin
	NotFound bool
}

// PluginArgs is the request for lifecycle operations.
type PluginArgs struct {
	Token  Token
	Plugin Plugin
}

// RPCServer is the RPC server implementation for gateways.
type RPCServer struct {
	Impl Gateway
}

// FindByName implements the RPC method for plugin lookup.
func (s *RPCServer) FindByName(args LookupArgs, resp *LookupReply) error {
	p, err := s.Impl.FindByName(WithToken(context.Background(), args.Token), args.Name)
	if errors.Is(err, ErrNotFound) {
		resp.NotFound = true
		return nil
	}
	if err != nil {
		return err
	}
	resp.Plugin = p
	return nil
}

// ListInstalled implements the RPC method for listing installed plugins.
func (s *RPCServer) ListInstalled(token Token, resp *[]Plugin) error {
	plugins, err := s.Impl.ListInstalled(WithToken(context.Background(), token))
	if err != nil {
		return err
	}
	*resp = plugins
	return nil
}

// Install implements the RPC method for installing a plugin.
func (s *RPCServer) Install(args PluginArgs, _ *bool) error {
	return s.Impl.Install(WithToken(context.Background(), args.Token), args.Plugin)
}

// Activate implements the RPC method for activating a plugin.
func (s *RPCServer) Activate(args PluginArgs, _ *bool) error {
	return s.Impl.Activate(WithToken(context.Background(), args.Token), args.Plugin)
}

// Deactivate implements the RPC method for deactivating a plugin.
func (s *RPCServer) Deactivate(args PluginArgs, _ *bool) error {
	return s.Impl.Deactivate(WithToken(context.Background(), args.Token), args.Plugin)
}

// Update implements the RPC method for updating a plugin.
func (s *RPCServer) Update(args PluginArgs, _ *bool) error {
	return s.Impl.Update(WithToken(context.Background(), args.Token), args.Plugin)
}

// Uninstall implements the RPC method for uninstalling a plugin.
func (s *RPCServer) Uninstall(args PluginArgs, _ *bool) error {
	return s.Impl.Uninstall(WithToken(context.Background(), args.Token), args.Plugin)
}

// Refresh implements the RPC method for refreshing the plugin sources.
// Gateways without Refresher support treat it as a no-op.
func (s *RPCServer) Refresh(token Token, _ *bool) error {
	r, ok := s.Impl.(Refresher)
	if !ok {
		return nil
	}
	return r.Refresh(WithToken(context.Background(), token))
}

// RPCClient is the RPC client implementation for gateways.
type RPCClient struct {
	client *rpc.Client
}

// NewRPCClient wraps an existing net/rpc client.
func NewRPCClient(c *rpc.Client) *RPCClient {
	return &RPCClient{client: c}
}

// FindByName calls the remote FindByName method.
func (c *RPCClient) FindByName(ctx context.Context, name string) (Plugin, error) {
	var resp LookupReply
	if err := c.call("Plugin.FindByName", LookupArgs{Token: TokenFrom(ctx), Name: name}, &resp); err != nil {
		return Plugin{}, err
	}
	if resp.NotFound {
		return Plugin{}, ErrNotFound
	}
	return resp.Plugin, nil
}

// ListInstalled calls the remote ListInstalled method.
func (c *RPCClient) ListInstalled(ctx context.Context) ([]Plugin, error) {
	var plugins []Plugin
	err := c.call("Plugin.ListInstalled", TokenFrom(ctx), &plugins)
	return plugins, err
}

// Install calls the remote Install method.
func (c *RPCClient) Install(ctx context.Context, p Plugin) error {
	return c.call("Plugin.Install", PluginArgs{Token: TokenFrom(ctx), Plugin: p}, new(bool))
}

// Activate calls the remote Activate method.
func (c *RPCClient) Activate(ctx context.Context, p Plugin) error {
	return c.call("Plugin.Activate", PluginArgs{Token: TokenFrom(ctx), Plugin: p}, new(bool))
}

// Deactivate calls the remote Deactivate method.
func (c *RPCClient) Deactivate(ctx context.Context, p Plugin) error {
	return c.call("Plugin.Deactivate", PluginArgs{Token: TokenFrom(ctx), Plugin: p}, new(bool))
}

// Update calls the remote Update method.
func (c *RPCClient) Update(ctx context.Context, p Plugin) error {
	return c.call("Plugin.Update", PluginArgs{Token: TokenFrom(ctx), Plugin: p}, new(bool))
}

// Uninstall calls the remote Uninstall method.
func (c *RPCClient) Uninstall(ctx context.Context, p Plugin) error {
	return c.call("Plugin.Uninstall", PluginArgs{Token: TokenFrom(ctx), Plugin: p}, new(bool))
}

// Refresh calls the remote Refresh method.
func (c *RPCClient) Refresh(ctx context.Context) error {
	return c.call("Plugin.Refresh", TokenFrom(ctx), new(bool))
}

func (c *RPCClient) call(method string, args, reply any) error {
	err := c.client.Call(method, args, reply)
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		return &RPCError{Message: string(serverErr)}
	}
	return err
}

// RPCError represents an error returned by the remote gateway.
type RPCError struct {
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}
