package router

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dtroode/authd/internal/api/grpc/authpb"
	grpcctx "github.com/dtroode/authd/internal/api/grpc/context"
	"github.com/dtroode/authd/internal/api/grpc/middleware"
	"github.com/dtroode/authd/internal/hasher"
	"github.com/dtroode/authd/internal/repository/memory"
	"github.com/dtroode/authd/internal/service"
	"github.com/dtroode/authd/internal/session"
	"github.com/dtroode/authd/internal/testutil"
)

type countingObserver struct {
	mu    sync.Mutex
	codes map[string]int
}

func (o *countingObserver) ObserveRequest(_ string, code string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes[code]++
}

func startServer(t *testing.T, observer *countingObserver) *grpc.ClientConn {
	t.Helper()
	log := testutil.MakeNoopLogger()

	sessions := session.NewManager(memory.NewSessionRepository(), log)
	auth, err := service.NewAuth(memory.NewAccountRepository(), sessions,
		hasher.NewArgon2id(hasher.Params{Time: 1, MemKiB: 64, Threads: 1}),
		service.DefaultPasswordPolicy, log)
	require.NoError(t, err)

	var obs middleware.RequestObserver
	if observer != nil {
		obs = observer
	}
	s := New(auth, sessions, obs, grpcctx.NewManager(), log).Register()

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestRouter_EndToEnd(t *testing.T) {
	obs := &countingObserver{codes: map[string]int{}}
	client := authpb.NewAuthClient(startServer(t, obs))
	ctx := context.Background()

	out, err := client.Call(ctx, authpb.MethodRegister, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"})
	require.NoError(t, err)
	account := out.GetFields()["account"].GetStructValue().GetFields()
	assert.Equal(t, "a@x.com", account["email"].GetStringValue())

	_, err = client.Call(ctx, authpb.MethodRegister, map[string]any{"email": "A@x.com", "password": "Str0ngP@ss"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	out, err = client.Call(ctx, authpb.MethodLogin, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"})
	require.NoError(t, err)
	token := out.GetFields()["token"].GetStringValue()
	require.NotEmpty(t, token)

	out, err = client.Call(withToken(token), authpb.MethodCurrentAccount, nil)
	require.NoError(t, err)
	assert.Equal(t, account["id"].GetStringValue(),
		out.GetFields()["account"].GetStructValue().GetFields()["id"].GetStringValue())

	_, err = client.Call(withToken(token), authpb.MethodLogout, nil)
	require.NoError(t, err)

	_, err = client.Call(withToken(token), authpb.MethodCurrentAccount, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 4, obs.codes["OK"])
	assert.Equal(t, 1, obs.codes["AlreadyExists"])
	assert.Equal(t, 1, obs.codes["Unauthenticated"])
}

func TestRouter_LoginFailuresLookAlike(t *testing.T) {
	client := authpb.NewAuthClient(startServer(t, nil))
	ctx := context.Background()

	_, err := client.Call(ctx, authpb.MethodRegister, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"})
	require.NoError(t, err)

	_, errUnknown := client.Call(ctx, authpb.MethodLogin, map[string]any{"email": "b@x.com", "password": "Str0ngP@ss"})
	_, errWrong := client.Call(ctx, authpb.MethodLogin, map[string]any{"email": "a@x.com", "password": "Wr0ngP@ss!"})

	stUnknown, _ := status.FromError(errUnknown)
	stWrong, _ := status.FromError(errWrong)
	assert.Equal(t, codes.Unauthenticated, stUnknown.Code())
	assert.Equal(t, stUnknown.Code(), stWrong.Code())
	assert.Equal(t, stUnknown.Message(), stWrong.Message())
}

func TestRouter_SessionRequired(t *testing.T) {
	client := authpb.NewAuthClient(startServer(t, nil))

	for _, method := range []string{
		authpb.MethodLogout,
		authpb.MethodCurrentAccount,
		authpb.MethodRefresh,
		authpb.MethodChangePassword,
		authpb.MethodDeleteAccount,
		authpb.MethodListSessions,
		authpb.MethodRevokeOtherSessions,
	} {
		_, err := client.Call(context.Background(), method, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err), method)

		_, err = client.Call(withToken("forged"), method, nil)
		assert.Equal(t, codes.Unauthenticated, status.Code(err), method)
	}
}

func TestRouter_SessionManagement(t *testing.T) {
	client := authpb.NewAuthClient(startServer(t, nil))
	ctx := context.Background()
	creds := map[string]any{"email": "m@x.com", "password": "Str0ngP@ss"}

	_, err := client.Call(ctx, authpb.MethodRegister, creds)
	require.NoError(t, err)

	login := func() string {
		out, err := client.Call(ctx, authpb.MethodLogin, creds)
		require.NoError(t, err)
		return out.GetFields()["token"].GetStringValue()
	}
	first, second := login(), login()

	out, err := client.Call(withToken(first), authpb.MethodListSessions, nil)
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["sessions"].GetListValue().GetValues(), 2)

	out, err = client.Call(withToken(first), authpb.MethodRefresh, nil)
	require.NoError(t, err)
	refreshed := out.GetFields()["token"].GetStringValue()
	assert.NotEqual(t, first, refreshed)

	out, err = client.Call(withToken(refreshed), authpb.MethodRevokeOtherSessions, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.GetFields()["revoked"].GetNumberValue())

	_, err = client.Call(withToken(second), authpb.MethodCurrentAccount, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.Call(withToken(refreshed), authpb.MethodChangePassword, map[string]any{
		"current_password": "Str0ngP@ss",
		"new_password":     "weak",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Call(withToken(refreshed), authpb.MethodDeleteAccount, map[string]any{"password": "Str0ngP@ss"})
	require.NoError(t, err)

	_, err = client.Call(ctx, authpb.MethodLogin, creds)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRouter_Health(t *testing.T) {
	conn := startServer(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: authpb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
