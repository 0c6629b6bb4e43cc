package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/catalog"
	"riceMarketplace/internal/testutil"
	"riceMarketplace/models"
	"riceMarketplace/repository"
)

const testSecret = "grpc-test-secret"

type fixture struct {
	server   *CatalogServer
	accounts *account.Service
	catalog  *catalog.Service
	farmer   *models.Farmer
	buyer    *models.Farmer
}

// newFixture opens an in-memory DB with one farmer owning two products and one buyer.
func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	farmers := repository.NewFarmerRepository(d)
	products := repository.NewProductRepository(d)
	accounts := account.NewService(farmers, nil)
	cat := catalog.NewService(products, farmers, nil)

	ctx := context.Background()
	farmer, err := accounts.Register(ctx, account.RegisterInput{Username: "farmer", Password: "pw", ConfirmPassword: "pw", Role: "farmer"})
	if err != nil {
		t.Fatalf("register farmer: %v", err)
	}
	buyer, err := accounts.Register(ctx, account.RegisterInput{Username: "buyer", Password: "pw", ConfirmPassword: "pw", Role: "buyer"})
	if err != nil {
		t.Fatalf("register buyer: %v", err)
	}
	for _, in := range []catalog.ProductInput{
		{Name: "Basmati", Price: "120.5", Quantity: "50"},
		{Name: "Jasmine", Price: "80", Quantity: "10"},
	} {
		if _, err := cat.Create(ctx, farmer, in, nil); err != nil {
			t.Fatalf("create product: %v", err)
		}
	}
	return &fixture{
		server:   &CatalogServer{Accounts: accounts, Catalog: cat},
		accounts: accounts,
		catalog:  cat,
		farmer:   farmer,
		buyer:    buyer,
	}
}

func newPrincipalCtx(f *models.Farmer) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{AccountID: f.ID, Name: f.Username, Kind: f.Role})
}

func productNames(t *testing.T, s *structpb.Struct) []string {
	t.Helper()
	list := s.GetFields()["products"].GetListValue()
	if list == nil {
		t.Fatalf("response has no products list: %v", s)
	}
	var names []string
	for _, v := range list.GetValues() {
		names = append(names, v.GetStructValue().GetFields()["name"].GetStringValue())
	}
	return names
}

func TestListProducts(t *testing.T) {
	fx := newFixture(t, "grpclist")
	resp, err := fx.server.ListProducts(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	names := productNames(t, resp)
	if len(names) != 2 || names[0] != "Basmati" || names[1] != "Jasmine" {
		t.Fatalf("unexpected products %v", names)
	}
}

func TestGetProduct(t *testing.T) {
	fx := newFixture(t, "grpcget")
	ctx := context.Background()

	resp, err := fx.server.GetProduct(ctx, wrapperspb.Int64(1))
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	fields := resp.GetFields()
	if fields["name"].GetStringValue() != "Basmati" || fields["price"].GetNumberValue() != 120.5 || fields["quantity"].GetNumberValue() != 50 {
		t.Fatalf("unexpected product %v", resp)
	}
	if fields["farmer_id"].GetNumberValue() != float64(fx.farmer.ID) {
		t.Fatalf("unexpected owner %v", fields["farmer_id"])
	}

	if _, err := fx.server.GetProduct(ctx, wrapperspb.Int64(999)); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := fx.server.GetProduct(ctx, wrapperspb.Int64(0)); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestListMyProducts_Authorization(t *testing.T) {
	fx := newFixture(t, "grpcmine")

	if _, err := fx.server.ListMyProducts(context.Background(), &emptypb.Empty{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if _, err := fx.server.ListMyProducts(newPrincipalCtx(fx.buyer), &emptypb.Empty{}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	ghost := &models.Farmer{ID: 404, Username: "ghost", Role: models.RoleFarmer}
	if _, err := fx.server.ListMyProducts(newPrincipalCtx(ghost), &emptypb.Empty{}); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound for deleted account, got %v", err)
	}

	resp, err := fx.server.ListMyProducts(newPrincipalCtx(fx.farmer), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListMyProducts: %v", err)
	}
	if names := productNames(t, resp); len(names) != 2 {
		t.Fatalf("expected two listings, got %v", names)
	}
}

// dialBufconn serves the full server (interceptor included) over an in-memory listener.
func dialBufconn(t *testing.T, fx *fixture, sessions *auth.Sessions) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(sessions, fx.accounts, fx.catalog)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestCatalogService_OverTheWire(t *testing.T) {
	fx := newFixture(t, "grpcwire")
	sessions, err := auth.NewSessions(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	conn := dialBufconn(t, fx, sessions)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var all structpb.Struct
	if err := conn.Invoke(ctx, methodListProducts, &emptypb.Empty{}, &all); err != nil {
		t.Fatalf("public ListProducts: %v", err)
	}
	if names := productNames(t, &all); len(names) != 2 {
		t.Fatalf("unexpected products %v", names)
	}

	var one structpb.Struct
	if err := conn.Invoke(ctx, methodGetProduct, wrapperspb.Int64(2), &one); err != nil {
		t.Fatalf("public GetProduct: %v", err)
	}
	if got := one.GetFields()["name"].GetStringValue(); got != "Jasmine" {
		t.Fatalf("unexpected product %q", got)
	}

	var mine structpb.Struct
	err = conn.Invoke(ctx, methodListMyProducts, &emptypb.Empty{}, &mine)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated without token, got %v", err)
	}

	buyerTok := testutil.GenerateJWTHS256(t, testSecret, fx.buyer.ID, fx.buyer.Username, "buyer", time.Hour)
	err = conn.Invoke(metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+buyerTok), methodListMyProducts, &emptypb.Empty{}, &mine)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for buyer, got %v", err)
	}

	farmerTok, _, err := sessions.Issue(fx.farmer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := conn.Invoke(metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+farmerTok), methodListMyProducts, &emptypb.Empty{}, &mine); err != nil {
		t.Fatalf("farmer ListMyProducts: %v", err)
	}
	if names := productNames(t, &mine); len(names) != 2 {
		t.Fatalf("unexpected listings %v", names)
	}
}
