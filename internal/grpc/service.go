package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "roombook.v1.RoomBookingService"

// RoomBookingServer is the server API. Every method takes and returns a
// google.protobuf.Struct so clients need no generated stubs.
type RoomBookingServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SuggestRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MyRooms(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BookRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReleaseRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UploadRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ModifyRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFloorPlans(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UploadFloorPlan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ModifyFloorPlan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterAdmin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GoOffline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GoOnline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListQueued(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportBundle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportBundle(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(RoomBookingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, c call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return c(srv.(RoomBookingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return c(srv.(RoomBookingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the gRPC path of a method of this service.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ServiceDesc describes RoomBookingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomBookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", RoomBookingServer.Login),
		unary("Register", RoomBookingServer.Register),
		unary("ListRooms", RoomBookingServer.ListRooms),
		unary("SuggestRooms", RoomBookingServer.SuggestRooms),
		unary("MyRooms", RoomBookingServer.MyRooms),
		unary("BookRoom", RoomBookingServer.BookRoom),
		unary("ReleaseRoom", RoomBookingServer.ReleaseRoom),
		unary("UploadRoom", RoomBookingServer.UploadRoom),
		unary("ModifyRoom", RoomBookingServer.ModifyRoom),
		unary("DeleteRoom", RoomBookingServer.DeleteRoom),
		unary("ListFloorPlans", RoomBookingServer.ListFloorPlans),
		unary("UploadFloorPlan", RoomBookingServer.UploadFloorPlan),
		unary("ModifyFloorPlan", RoomBookingServer.ModifyFloorPlan),
		unary("RegisterAdmin", RoomBookingServer.RegisterAdmin),
		unary("ListUsers", RoomBookingServer.ListUsers),
		unary("EditUser", RoomBookingServer.EditUser),
		unary("DeleteUser", RoomBookingServer.DeleteUser),
		unary("GoOffline", RoomBookingServer.GoOffline),
		unary("GoOnline", RoomBookingServer.GoOnline),
		unary("Status", RoomBookingServer.Status),
		unary("ListQueued", RoomBookingServer.ListQueued),
		unary("History", RoomBookingServer.History),
		unary("ExportBundle", RoomBookingServer.ExportBundle),
		unary("ImportBundle", RoomBookingServer.ImportBundle),
	},
	Metadata: "roombook/v1/roombook.proto",
}

// RegisterRoomBookingServer registers srv on s.
func RegisterRoomBookingServer(s grpc.ServiceRegistrar, srv RoomBookingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls RoomBookingService over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and returns the decoded response body.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	if req == nil {
		req = map[string]any{}
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
