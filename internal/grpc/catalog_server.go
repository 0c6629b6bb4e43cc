package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/catalog"
	"riceMarketplace/models"
)

const (
	catalogServiceName   = "ricemarket.catalog.v1.CatalogService"
	methodListProducts   = "/" + catalogServiceName + "/ListProducts"
	methodGetProduct     = "/" + catalogServiceName + "/GetProduct"
	methodListMyProducts = "/" + catalogServiceName + "/ListMyProducts"
)

// CatalogServiceServer is the server API for the catalog service. Messages are
// protobuf well-known types, so no generated code is involved.
type CatalogServiceServer interface {
	ListProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetProduct(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListMyProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCatalogServiceServer registers srv on s.
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: catalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProducts", Handler: listProductsHandler},
		{MethodName: "GetProduct", Handler: getProductHandler},
		{MethodName: "ListMyProducts", Handler: listMyProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ricemarket/catalog/v1/catalog.proto",
}

func listProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListProducts}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServiceServer).ListProducts(ctx, req.(*emptypb.Empty))
	})
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetProduct}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServiceServer).GetProduct(ctx, req.(*wrapperspb.Int64Value))
	})
}

func listMyProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).ListMyProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListMyProducts}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServiceServer).ListMyProducts(ctx, req.(*emptypb.Empty))
	})
}

// CatalogServer implements CatalogServiceServer over the catalog service.
type CatalogServer struct {
	Accounts *account.Service
	Catalog  *catalog.Service
}

var _ CatalogServiceServer = (*CatalogServer)(nil)

// ListProducts returns every listed product.
func (s *CatalogServer) ListProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ps, err := s.Catalog.ListAll(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list products: %v", err)
	}
	return toProtoProductList(ps)
}

// GetProduct returns a single product by id.
func (s *CatalogServer) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if req == nil || req.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	p, err := s.Catalog.GetByID(ctx, req.GetValue())
	if errors.Is(err, models.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get product: %v", err)
	}
	out, err := structpb.NewStruct(productFields(p))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode product: %v", err)
	}
	return out, nil
}

// ListMyProducts returns the calling farmer's products.
func (s *CatalogServer) ListMyProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, err := auth.RequireFarmer(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.resolveCurrentAccount(ctx, p)
	if err != nil {
		return nil, err
	}
	ps, err := s.Catalog.ListByOwner(ctx, f)
	if errors.Is(err, models.ErrForbidden) {
		return nil, status.Error(codes.PermissionDenied, "only farmers have listings")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list products: %v", err)
	}
	return toProtoProductList(ps)
}

// resolveCurrentAccount loads the account behind the principal; the token may outlive it.
func (s *CatalogServer) resolveCurrentAccount(ctx context.Context, p *auth.Principal) (*models.Farmer, error) {
	f, err := s.Accounts.Restore(ctx, p.AccountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "account not found")
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get account: %v", err)
	}
	return f, nil
}

func productFields(p *models.RiceProduct) map[string]any {
	return map[string]any{
		"id":          float64(p.ID),
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"quantity":    float64(p.Quantity),
		"image":       p.Image,
		"farmer_id":   float64(p.FarmerID),
	}
}

func toProtoProductList(ps []models.RiceProduct) (*structpb.Struct, error) {
	items := make([]any, 0, len(ps))
	for i := range ps {
		items = append(items, productFields(&ps[i]))
	}
	out, err := structpb.NewStruct(map[string]any{"products": items})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode products: %v", err)
	}
	return out, nil
}
