// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/opencacm/adk/pkg/errors"
)

// GRPCPlugin serves skills hosted on a remote gRPC server. Services and
// methods are discovered via server reflection; functions are unary methods
// named service_method in snake case, invoked with dynamically built
// messages.
type GRPCPlugin struct {
	target   string
	conn     *grpc.ClientConn
	services map[string]*GRPCService
	opts     []grpc.DialOption
}

// GRPCService is a service discovered via reflection.
type GRPCService struct {
	Name        string
	FullName    string
	Methods     []GRPCMethod
	ServiceDesc protoreflect.ServiceDescriptor
}

// GRPCMethod is a method of a discovered service.
type GRPCMethod struct {
	Name        string
	FullName    string
	InputType   protoreflect.MessageDescriptor
	OutputType  protoreflect.MessageDescriptor
	IsStreaming bool
}

// GRPCOption configures the GRPCPlugin.
type GRPCOption func(*GRPCPlugin)

// WithGRPCDialOptions adds custom gRPC dial options.
func WithGRPCDialOptions(opts ...grpc.DialOption) GRPCOption {
	return func(p *GRPCPlugin) {
		p.opts = append(p.opts, opts...)
	}
}

// WithGRPCInsecure uses an insecure connection (for development).
func WithGRPCInsecure() GRPCOption {
	return func(p *GRPCPlugin) {
		p.opts = append(p.opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
}

// NewGRPCPlugin connects to target and discovers its services via server
// reflection.
func NewGRPCPlugin(target string, opts ...GRPCOption) (*GRPCPlugin, error) {
	p := &GRPCPlugin{
		target:   target,
		services: make(map[string]*GRPCService),
		opts:     []grpc.DialOption{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.opts) == 0 {
		p.opts = append(p.opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, target, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", target, err)
	}
	p.conn = conn

	if err := p.reflect(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reflection failed: %w", err)
	}
	return p, nil
}

// NewGRPCPluginFromServices creates a plugin from pre-defined services.
// Useful for testing or when reflection is not available.
func NewGRPCPluginFromServices(target string, services map[string]*GRPCService) *GRPCPlugin {
	return &GRPCPlugin{
		target:   target,
		services: services,
	}
}

// reflect discovers services using gRPC server reflection.
func (p *GRPCPlugin) reflect(ctx context.Context) error {
	client := grpc_reflection_v1alpha.NewServerReflectionClient(p.conn)

	stream, err := client.ServerReflectionInfo(ctx)
	if err != nil {
		return fmt.Errorf("create reflection stream: %w", err)
	}
	defer stream.CloseSend()

	if err := stream.Send(&grpc_reflection_v1alpha.ServerReflectionRequest{
		MessageRequest: &grpc_reflection_v1alpha.ServerReflectionRequest_ListServices{
			ListServices: "",
		},
	}); err != nil {
		return fmt.Errorf("send list services request: %w", err)
	}

	resp, err := stream.Recv()
	if err != nil {
		return fmt.Errorf("receive list services response: %w", err)
	}

	listResp := resp.GetListServicesResponse()
	if listResp == nil {
		return fmt.Errorf("unexpected response type")
	}

	for _, svc := range listResp.GetService() {
		serviceName := svc.GetName()
		if strings.HasPrefix(serviceName, "grpc.reflection") {
			continue
		}

		if err := stream.Send(&grpc_reflection_v1alpha.ServerReflectionRequest{
			MessageRequest: &grpc_reflection_v1alpha.ServerReflectionRequest_FileContainingSymbol{
				FileContainingSymbol: serviceName,
			},
		}); err != nil {
			continue
		}

		resp, err := stream.Recv()
		if err != nil {
			continue
		}

		fdResp := resp.GetFileDescriptorResponse()
		if fdResp == nil {
			continue
		}

		if err := p.parseFileDescriptors(serviceName, fdResp.GetFileDescriptorProto()); err != nil {
			continue
		}
	}

	return nil
}

// parseFileDescriptors registers the received file descriptors and extracts
// the named service.
func (p *GRPCPlugin) parseFileDescriptors(serviceName string, fdProtos [][]byte) error {
	var files []*descriptorpb.FileDescriptorProto
	for _, fdBytes := range fdProtos {
		var fd descriptorpb.FileDescriptorProto
		if err := proto.Unmarshal(fdBytes, &fd); err != nil {
			return err
		}
		files = append(files, &fd)
	}

	resolver := &protoregistry.Files{}
	for _, fdProto := range files {
		fd, err := protodesc.NewFile(fdProto, resolver)
		if err != nil {
			continue
		}
		resolver.RegisterFile(fd)
	}

	desc, err := resolver.FindDescriptorByName(protoreflect.FullName(serviceName))
	if err != nil {
		return err
	}
	serviceDesc, ok := desc.(protoreflect.ServiceDescriptor)
	if !ok {
		return fmt.Errorf("not a service descriptor")
	}

	svc := &GRPCService{
		Name:        string(serviceDesc.Name()),
		FullName:    serviceName,
		ServiceDesc: serviceDesc,
	}
	methods := serviceDesc.Methods()
	for i := 0; i < methods.Len(); i++ {
		method := methods.Get(i)
		svc.Methods = append(svc.Methods, GRPCMethod{
			Name:        string(method.Name()),
			FullName:    fmt.Sprintf("/%s/%s", serviceName, method.Name()),
			InputType:   method.Input(),
			OutputType:  method.Output(),
			IsStreaming: method.IsStreamingClient() || method.IsStreamingServer(),
		})
	}

	p.services[serviceName] = svc
	return nil
}

// Call implements Plugin. function must be a snake_case service_method name
// of a unary method.
func (p *GRPCPlugin) Call(ctx context.Context, function string, args map[string]any) (any, error) {
	_, method, err := p.findMethod(function)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "grpc method not found", err).
			WithContext("function", function).
			WithContext("target", p.target)
	}

	if p.conn == nil {
		return nil, errors.New(errors.CodeSkillFailure, "not connected to grpc server", nil).
			WithContext("target", p.target)
	}

	inputMsg := dynamicpb.NewMessage(method.InputType)
	if err := populateMessage(inputMsg, args); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "build grpc request message", err).
			WithContext("function", function)
	}

	outputMsg := dynamicpb.NewMessage(method.OutputType)
	if err := p.conn.Invoke(ctx, method.FullName, inputMsg, outputMsg); err != nil {
		return nil, errors.New(errors.CodeSkillFailure, "grpc call failed", err).
			WithContext("function", function).
			WithContext("target", p.target).
			WithRecoverable(true)
	}

	return messageToMap(outputMsg), nil
}

// Functions implements Plugin: snake_case service_method names of all
// discovered unary methods, sorted.
func (p *GRPCPlugin) Functions() []string {
	var names []string
	for _, svc := range p.services {
		for _, method := range svc.Methods {
			if method.IsStreaming {
				continue
			}
			names = append(names, toSnakeCase(fmt.Sprintf("%s_%s", svc.Name, method.Name)))
		}
	}
	sort.Strings(names)
	return names
}

// Close closes the gRPC connection.
func (p *GRPCPlugin) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// findMethod resolves a snake_case service_method name.
func (p *GRPCPlugin) findMethod(function string) (*GRPCService, *GRPCMethod, error) {
	for _, svc := range p.services {
		for i := range svc.Methods {
			method := &svc.Methods[i]
			expectedName := toSnakeCase(fmt.Sprintf("%s_%s", svc.Name, method.Name))
			if function == expectedName {
				return svc, method, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("method not found: %s", function)
}

// populateMessage populates a dynamic message from an argument map.
func populateMessage(msg *dynamicpb.Message, args map[string]any) error {
	if args == nil {
		return nil
	}

	fields := msg.Descriptor().Fields()
	for key, value := range args {
		var field protoreflect.FieldDescriptor
		for i := 0; i < fields.Len(); i++ {
			f := fields.Get(i)
			if string(f.JSONName()) == key || string(f.Name()) == key {
				field = f
				break
			}
		}
		if field == nil {
			continue
		}

		protoValue, err := toProtoValue(field, value)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		msg.Set(field, protoValue)
	}
	return nil
}

// toProtoValue converts a Go value to a protoreflect.Value.
func toProtoValue(field protoreflect.FieldDescriptor, value any) (protoreflect.Value, error) {
	if value == nil {
		return protoreflect.Value{}, nil
	}

	switch field.Kind() {
	case protoreflect.BoolKind:
		if b, ok := value.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if n, ok := toInt64(value); ok {
			return protoreflect.ValueOfInt32(int32(n)), nil
		}
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if n, ok := toInt64(value); ok {
			return protoreflect.ValueOfInt64(n), nil
		}
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		if n, ok := toUint64(value); ok {
			return protoreflect.ValueOfUint32(uint32(n)), nil
		}
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if n, ok := toUint64(value); ok {
			return protoreflect.ValueOfUint64(n), nil
		}
	case protoreflect.FloatKind:
		if f, ok := toFloat64(value); ok {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
	case protoreflect.DoubleKind:
		if f, ok := toFloat64(value); ok {
			return protoreflect.ValueOfFloat64(f), nil
		}
	case protoreflect.StringKind:
		if s, ok := value.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		if s, ok := value.(string); ok {
			return protoreflect.ValueOfBytes([]byte(s)), nil
		}
	case protoreflect.EnumKind:
		if s, ok := value.(string); ok {
			enum := field.Enum()
			if v := enum.Values().ByName(protoreflect.Name(s)); v != nil {
				return protoreflect.ValueOfEnum(v.Number()), nil
			}
		}
	case protoreflect.MessageKind:
		if m, ok := value.(map[string]any); ok {
			nestedMsg := dynamicpb.NewMessage(field.Message())
			if err := populateMessage(nestedMsg, m); err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfMessage(nestedMsg), nil
		}
	}

	return protoreflect.Value{}, fmt.Errorf("cannot convert %T to %s", value, field.Kind())
}

// messageToMap converts a dynamic message to a map.
func messageToMap(msg *dynamicpb.Message) map[string]any {
	result := make(map[string]any)
	msg.Range(func(field protoreflect.FieldDescriptor, value protoreflect.Value) bool {
		key := string(field.JSONName())
		if key == "" {
			key = string(field.Name())
		}
		result[key] = protoValueToGo(field, value)
		return true
	})
	return result
}

func protoValueToGo(field protoreflect.FieldDescriptor, value protoreflect.Value) any {
	if field.IsList() {
		list := value.List()
		result := make([]any, list.Len())
		for i := 0; i < list.Len(); i++ {
			result[i] = scalarToGo(field, list.Get(i))
		}
		return result
	}

	if field.IsMap() {
		m := value.Map()
		result := make(map[string]any)
		m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			keyStr := fmt.Sprintf("%v", k.Interface())
			result[keyStr] = scalarToGo(field.MapValue(), v)
			return true
		})
		return result
	}

	return scalarToGo(field, value)
}

func scalarToGo(field protoreflect.FieldDescriptor, value protoreflect.Value) any {
	switch field.Kind() {
	case protoreflect.MessageKind:
		if msg, ok := value.Interface().(*dynamicpb.Message); ok {
			return messageToMap(msg)
		}
		return value.Interface()
	case protoreflect.EnumKind:
		return string(field.Enum().Values().ByNumber(value.Enum()).Name())
	default:
		return value.Interface()
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '_' {
				result.WriteRune('_')
			}
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case float64:
		return uint64(n), true
	case json.Number:
		i, err := n.Int64()
		return uint64(i), err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
