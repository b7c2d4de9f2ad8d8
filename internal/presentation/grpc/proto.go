package grpc

// proto.go defines the CalculatorService API by hand. Messages are the
// application DTOs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/logicalc/loancalc/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "loancalc.v1.CalculatorService"

// Full method names.
const (
	MethodCalculate       = "/" + ServiceName + "/Calculate"
	MethodGetCalculation  = "/" + ServiceName + "/GetCalculation"
	MethodGetCompany      = "/" + ServiceName + "/GetCompany"
	MethodSubmitMessage   = "/" + ServiceName + "/SubmitMessage"
	MethodImportRateTable = "/" + ServiceName + "/ImportRateTable"
)

// CalculatorServiceServer is the server API for CalculatorService.
type CalculatorServiceServer interface {
	Calculate(context.Context, *dto.CalculateLoanRequest) (*dto.CalculationResponse, error)
	GetCalculation(context.Context, *dto.GetCalculationRequest) (*dto.CalculationResponse, error)
	GetCompany(context.Context, *dto.GetCompanyRequest) (*dto.CompanyResponse, error)
	SubmitMessage(context.Context, *dto.SubmitCompanyMessageRequest) (*dto.CompanyMessageResponse, error)
	ImportRateTable(context.Context, *dto.ImportRateTableRequest) (*dto.ImportRateTableResponse, error)
	mustEmbedUnimplementedCalculatorServiceServer()
}

// UnimplementedCalculatorServiceServer provides forward-compatible default implementations.
type UnimplementedCalculatorServiceServer struct{}

func (UnimplementedCalculatorServiceServer) Calculate(context.Context, *dto.CalculateLoanRequest) (*dto.CalculationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Calculate not implemented")
}
func (UnimplementedCalculatorServiceServer) GetCalculation(context.Context, *dto.GetCalculationRequest) (*dto.CalculationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCalculation not implemented")
}
func (UnimplementedCalculatorServiceServer) GetCompany(context.Context, *dto.GetCompanyRequest) (*dto.CompanyResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCompany not implemented")
}
func (UnimplementedCalculatorServiceServer) SubmitMessage(context.Context, *dto.SubmitCompanyMessageRequest) (*dto.CompanyMessageResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitMessage not implemented")
}
func (UnimplementedCalculatorServiceServer) ImportRateTable(context.Context, *dto.ImportRateTableRequest) (*dto.ImportRateTableResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ImportRateTable not implemented")
}
func (UnimplementedCalculatorServiceServer) mustEmbedUnimplementedCalculatorServiceServer() {}

// RegisterCalculatorServiceServer registers the CalculatorServiceServer with the gRPC server.
func RegisterCalculatorServiceServer(s grpclib.ServiceRegistrar, srv CalculatorServiceServer) {
	s.RegisterService(&calculatorServiceDesc, srv)
}

var calculatorServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Calculate", Handler: unaryHandler(MethodCalculate, CalculatorServiceServer.Calculate)},
		{MethodName: "GetCalculation", Handler: unaryHandler(MethodGetCalculation, CalculatorServiceServer.GetCalculation)},
		{MethodName: "GetCompany", Handler: unaryHandler(MethodGetCompany, CalculatorServiceServer.GetCompany)},
		{MethodName: "SubmitMessage", Handler: unaryHandler(MethodSubmitMessage, CalculatorServiceServer.SubmitMessage)},
		{MethodName: "ImportRateTable", Handler: unaryHandler(MethodImportRateTable, CalculatorServiceServer.ImportRateTable)},
	},
	Streams: []grpclib.StreamDesc{},
}

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(CalculatorServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalculatorServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalculatorServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// CalculatorServiceClient calls CalculatorService over a connection using the
// JSON codec.
type CalculatorServiceClient struct {
	cc grpclib.ClientConnInterface
}

func NewCalculatorServiceClient(cc grpclib.ClientConnInterface) *CalculatorServiceClient {
	return &CalculatorServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpclib.ClientConnInterface, method string, in any, opts []grpclib.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CalculatorServiceClient) Calculate(ctx context.Context, in *dto.CalculateLoanRequest, opts ...grpclib.CallOption) (*dto.CalculationResponse, error) {
	return invoke[dto.CalculationResponse](ctx, c.cc, MethodCalculate, in, opts)
}

func (c *CalculatorServiceClient) GetCalculation(ctx context.Context, in *dto.GetCalculationRequest, opts ...grpclib.CallOption) (*dto.CalculationResponse, error) {
	return invoke[dto.CalculationResponse](ctx, c.cc, MethodGetCalculation, in, opts)
}

func (c *CalculatorServiceClient) GetCompany(ctx context.Context, in *dto.GetCompanyRequest, opts ...grpclib.CallOption) (*dto.CompanyResponse, error) {
	return invoke[dto.CompanyResponse](ctx, c.cc, MethodGetCompany, in, opts)
}

func (c *CalculatorServiceClient) SubmitMessage(ctx context.Context, in *dto.SubmitCompanyMessageRequest, opts ...grpclib.CallOption) (*dto.CompanyMessageResponse, error) {
	return invoke[dto.CompanyMessageResponse](ctx, c.cc, MethodSubmitMessage, in, opts)
}

func (c *CalculatorServiceClient) ImportRateTable(ctx context.Context, in *dto.ImportRateTableRequest, opts ...grpclib.CallOption) (*dto.ImportRateTableResponse, error) {
	return invoke[dto.ImportRateTableResponse](ctx, c.cc, MethodImportRateTable, in, opts)
}
