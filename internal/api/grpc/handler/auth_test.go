package handler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcctx "github.com/dtroode/authd/internal/api/grpc/context"
	"github.com/dtroode/authd/internal/mocks"
	"github.com/dtroode/authd/internal/model"
	"github.com/dtroode/authd/internal/testutil"
)

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func newHandler(t *testing.T) (*Auth, *mocks.AuthService, *grpcctx.Manager) {
	t.Helper()
	svc := mocks.NewAuthService(t)
	cm := grpcctx.NewManager()
	return NewAuth(svc, cm, testutil.MakeNoopLogger()), svc, cm
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	account := model.Account{ID: uuid.New(), Email: "a@x.com", CreatedAt: time.Now()}
	svc.On("Register", mock.Anything, "a@x.com", "Str0ngP@ss").Return(account, nil)

	out, err := h.Register(context.Background(), request(t, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"}))
	require.NoError(t, err)

	got := out.GetFields()["account"].GetStructValue().GetFields()
	assert.Equal(t, account.ID.String(), got["id"].GetStringValue())
	assert.Equal(t, "a@x.com", got["email"].GetStringValue())
	assert.NotContains(t, got, "password_hash")
}

func TestAuth_Register_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing fields", func(t *testing.T) {
		h, _, _ := newHandler(t)
		_, err := h.Register(context.Background(), request(t, map[string]any{"email": "a@x.com"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("already exists", func(t *testing.T) {
		h, svc, _ := newHandler(t)
		svc.On("Register", mock.Anything, "a@x.com", "Str0ngP@ss").Return(model.Account{}, model.ErrAccountExists)

		_, err := h.Register(context.Background(), request(t, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"}))
		assert.Equal(t, codes.AlreadyExists, status.Code(err))
	})
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	h, svc, _ := newHandler(t)
	s := model.Session{ID: ulid.Make(), AccountID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	svc.On("Login", mock.Anything, "a@x.com", "Str0ngP@ss", mock.AnythingOfType("model.ClientInfo")).Return("tok", s, nil)
	svc.On("Login", mock.Anything, "a@x.com", "wrong-pass", mock.AnythingOfType("model.ClientInfo")).Return("", model.Session{}, model.ErrInvalidCredentials)

	out, err := h.Login(context.Background(), request(t, map[string]any{"email": "a@x.com", "password": "Str0ngP@ss"}))
	require.NoError(t, err)
	assert.Equal(t, "tok", out.GetFields()["token"].GetStringValue())
	assert.Equal(t, s.ID.String(), out.GetFields()["session"].GetStructValue().GetFields()["id"].GetStringValue())

	_, err = h.Login(context.Background(), request(t, map[string]any{"email": "a@x.com", "password": "wrong-pass"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuth_AuthenticatedCallsRequireToken(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t)
	ctx := context.Background()
	empty := request(t, nil)

	calls := map[string]func() error{
		"Logout":              func() error { _, err := h.Logout(ctx, empty); return err },
		"CurrentAccount":      func() error { _, err := h.CurrentAccount(ctx, empty); return err },
		"Refresh":             func() error { _, err := h.Refresh(ctx, empty); return err },
		"ChangePassword":      func() error { _, err := h.ChangePassword(ctx, empty); return err },
		"DeleteAccount":       func() error { _, err := h.DeleteAccount(ctx, empty); return err },
		"ListSessions":        func() error { _, err := h.ListSessions(ctx, empty); return err },
		"RevokeOtherSessions": func() error { _, err := h.RevokeOtherSessions(ctx, empty); return err },
	}

	for name, call := range calls {
		assert.Equal(t, codes.Unauthenticated, status.Code(call()), name)
	}
}

func TestAuth_SessionCalls(t *testing.T) {
	t.Parallel()

	h, svc, cm := newHandler(t)
	ctx := cm.SetTokenToContext(context.Background(), "tok")
	account := model.Account{ID: uuid.New(), Email: "a@x.com"}
	s := model.Session{ID: ulid.Make(), AccountID: account.ID}

	svc.On("CurrentAccount", mock.Anything, "tok").Return(account, nil)
	svc.On("Refresh", mock.Anything, "tok", mock.AnythingOfType("model.ClientInfo")).Return("tok2", s, nil)
	svc.On("ListSessions", mock.Anything, "tok").Return([]model.Session{s, s}, nil)
	svc.On("RevokeOtherSessions", mock.Anything, "tok").Return(int64(3), nil)
	svc.On("ChangePassword", mock.Anything, "tok", "old-Pass1", "new-Pass1", true).Return(nil)
	svc.On("DeleteAccount", mock.Anything, "tok", "old-Pass1").Return(model.ErrInvalidCredentials)
	svc.On("Logout", mock.Anything, "tok").Return(model.ErrSessionInvalid)

	out, err := h.CurrentAccount(ctx, request(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", out.GetFields()["account"].GetStructValue().GetFields()["email"].GetStringValue())

	out, err = h.Refresh(ctx, request(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "tok2", out.GetFields()["token"].GetStringValue())

	out, err = h.ListSessions(ctx, request(t, nil))
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["sessions"].GetListValue().GetValues(), 2)

	out, err = h.RevokeOtherSessions(ctx, request(t, nil))
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.GetFields()["revoked"].GetNumberValue())

	_, err = h.ChangePassword(ctx, request(t, map[string]any{
		"current_password":      "old-Pass1",
		"new_password":          "new-Pass1",
		"revoke_other_sessions": true,
	}))
	require.NoError(t, err)

	_, err = h.ChangePassword(ctx, request(t, map[string]any{"current_password": "old-Pass1"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.DeleteAccount(ctx, request(t, map[string]any{"password": "old-Pass1"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.Logout(ctx, request(t, nil))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
