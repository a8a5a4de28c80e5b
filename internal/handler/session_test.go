package handler

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/store"
)

type fixture struct {
	accounts *store.AccountStore
	convs    *store.ConversationStore
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		dir: dir,
		accounts: store.NewAccountStore(
			repository.NewAccountFile(filepath.Join(dir, "allUser.txt")),
			repository.NewListingFile(filepath.Join(dir, "MarketInventory.txt")),
			nil,
		),
		convs: store.NewConversationStore(
			repository.NewConversationFiles(filepath.Join(dir, "messages")),
			repository.NewIndexFile(filepath.Join(dir, "fileNameList.txt")),
			nil,
		),
	}
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
	done chan struct{}
}

// connect starts a session on one end of a pipe and returns the other end.
func (f *fixture) connect(t *testing.T) *testClient {
	t.Helper()
	server, client := net.Pipe()
	sess := NewSession(protocol.NewStreamCodec(server, 1024), "pipe", f.accounts, f.convs, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Serve()
	}()
	c := &testClient{t: t, conn: client, r: bufio.NewReader(client), done: done}
	t.Cleanup(func() {
		client.Close()
		<-done
	})
	return c
}

func (c *testClient) send(raw string) protocol.Response {
	c.t.Helper()
	_ = c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	_, err := io.WriteString(c.conn, raw+"\n")
	require.NoError(c.t, err)
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	var resp protocol.Response
	require.NoError(c.t, json.Unmarshal([]byte(line), &resp))
	return resp
}

func (c *testClient) call(command string, args ...any) protocol.Response {
	c.t.Helper()
	req, err := protocol.NewRequest(command, args...)
	require.NoError(c.t, err)
	raw, err := json.Marshal(req)
	require.NoError(c.t, err)
	return c.send(string(raw))
}

func (c *testClient) mustOK(command string, args ...any) protocol.Response {
	c.t.Helper()
	resp := c.call(command, args...)
	require.True(c.t, resp.OK, "%s: %s", command, resp.Message)
	return resp
}

func dataAs[T any](t *testing.T, resp protocol.Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestMarketplaceScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t)
	bob := f.connect(t)

	alice.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)
	resp := alice.mustOK("login", "alice", "Passw0rd")
	acct := dataAs[AccountView](t, resp)
	assert.Equal(t, 100.0, acct.Balance)
	assert.Equal(t, "alice@x.com", acct.Email)
	alice.mustOK("postItem", "Bike", 50.0, "road bike")

	bob.mustOK("createAccount", "bob", "bob@x.com", "Passw0rd", 60.0)
	bob.mustOK("login", "bob@x.com", "Passw0rd")
	resp = bob.mustOK("buyItem", "alice", "Bike", 50.0)
	assert.Equal(t, "Success: Transaction occurs successfully", resp.Message)

	a, _ := f.accounts.FindByEmail("alice@x.com")
	b, _ := f.accounts.FindByEmail("bob@x.com")
	assert.Equal(t, 150.0, a.Balance)
	assert.Equal(t, 10.0, b.Balance)

	resp = bob.mustOK("search", "Bik")
	assert.Empty(t, dataAs[[]ListingView](t, resp))

	bob.mustOK("sendMessage", "alice", "Hi")
	resp = alice.mustOK("getMessageHistory")
	history := dataAs[map[string][]string](t, resp)
	require.Len(t, history["bob"], 1)
	assert.True(t, strings.HasPrefix(history["bob"][0], "bob: Hi ("))

	loaded, err := repository.NewAccountFile(filepath.Join(f.dir, "allUser.txt")).Load()
	require.NoError(t, err)
	for _, acct := range loaded {
		if acct.Email == "alice@x.com" {
			assert.Equal(t, 150.0, acct.Balance, "purchase is persisted")
		}
	}
}

func TestUnknownCommandKeepsSession(t *testing.T) {
	c := newFixture(t).connect(t)
	resp := c.call("fly")
	assert.False(t, resp.OK)
	assert.Equal(t, apperr.KindProtocol, resp.Kind)
	assert.Equal(t, "ERROR: Unknown command fly", resp.Message)

	resp = c.call("viewItems")
	assert.True(t, resp.OK)
}

func TestArityAndTypeErrorsKeepSession(t *testing.T) {
	c := newFixture(t).connect(t)
	resp := c.call("login", "alice")
	assert.Equal(t, apperr.KindProtocol, resp.Kind)
	resp = c.call("createAccount", "alice", "alice@x.com", "Passw0rd", "lots")
	assert.Equal(t, apperr.KindProtocol, resp.Kind)
	c.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", "100")
}

func TestMalformedFrameClosesSession(t *testing.T) {
	c := newFixture(t).connect(t)
	resp := c.send("{not json")
	assert.Equal(t, apperr.KindProtocol, resp.Kind)
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close")
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	c := newFixture(t).connect(t)
	for _, cmd := range []struct {
		name string
		args []any
	}{
		{"postItem", []any{"Bike", 5.0, ""}},
		{"buyItem", []any{"alice", "Bike", 5.0}},
		{"sendMessage", []any{"alice", "hi"}},
		{"addBalance", []any{5.0}},
		{"deleteAccount", nil},
	} {
		resp := c.call(cmd.name, cmd.args...)
		assert.Equal(t, apperr.KindUnauthenticated, resp.Kind, cmd.name)
		assert.Equal(t, "Failure: No user is currently logged in", resp.Message, cmd.name)
	}
	resp := c.call("getMessageHistory")
	assert.Equal(t, apperr.KindUnauthenticated, resp.Kind)
	assert.Equal(t, "FAILURE: User not logged in", resp.Message)
	resp = c.call("logout")
	assert.Equal(t, apperr.KindUnauthenticated, resp.Kind)
	assert.Equal(t, "Failure: No user is currently logged in", resp.Message)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	first := f.connect(t)
	second := f.connect(t)
	first.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)

	resp := first.call("createAccount", "alice", "other@x.com", "Passw0rd", 1.0)
	assert.Equal(t, apperr.KindDuplicate, resp.Kind)
	assert.Equal(t, "Cannot create account: A user with this username already exists", resp.Message)

	resp = first.call("login", "alice", "nope")
	assert.Equal(t, "Failure: Invalid Password! Please try again", resp.Message)
	first.mustOK("login", "alice", "Passw0rd")

	resp = second.call("login", "alice@x.com", "Passw0rd")
	assert.Equal(t, apperr.KindAlreadyOnline, resp.Kind)
	resp = first.call("login", "alice", "Passw0rd")
	assert.Equal(t, apperr.KindState, resp.Kind)

	first.mustOK("logout")
	second.mustOK("login", "alice@x.com", "Passw0rd")
}

func TestDisconnectLogsOut(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)
	c.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)
	c.mustOK("login", "alice", "Passw0rd")

	c.conn.Close()
	<-c.done
	acct, _ := f.accounts.FindByEmail("alice@x.com")
	assert.False(t, acct.Online)

	again := f.connect(t)
	again.mustOK("login", "alice", "Passw0rd")
}

func TestBalanceCommands(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)
	c.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)
	c.mustOK("login", "alice", "Passw0rd")

	resp := c.call("addBalance", 0.0)
	assert.Equal(t, "Failure: Amount must be positive", resp.Message)
	resp = c.call("withdrawBalance", -2.0)
	assert.Equal(t, "Failure: Withdrawal amount must be positive", resp.Message)
	resp = c.call("withdrawBalance", 500.0)
	assert.Equal(t, "Failure: Insufficient balance", resp.Message)
	assert.Equal(t, apperr.KindState, resp.Kind)

	resp = c.mustOK("addBalance", 20.0)
	assert.Equal(t, "Success: Added $20.0. New balance: $120.0", resp.Message)
	resp = c.mustOK("withdrawBalance", 0.5)
	assert.Equal(t, "Success: Withdrew $0.5. New balance: $119.5", resp.Message)
	resp = c.mustOK("getBalance")
	assert.Equal(t, 119.5, dataAs[BalanceView](t, resp).Balance)
}

func TestAccountCommands(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)
	c.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)
	c.mustOK("createAccount", "bob", "bob@x.com", "Passw0rd", 100.0)
	c.mustOK("login", "alice", "Passw0rd")

	resp := c.call("changeUsername", "bob")
	assert.Equal(t, "Failure: Username already exists", resp.Message)
	c.mustOK("changeUsername", "ally")
	resp = c.call("changeEmail", "bob@x.com")
	assert.Equal(t, "Failure: Email already exists", resp.Message)
	c.mustOK("changeEmail", "ally@x.com")
	c.mustOK("changePassword", "N3wPassword")
	c.mustOK("postItem", "Lamp", 5.0, "")

	resp = c.mustOK("myItems")
	items := dataAs[[]ListingView](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "ally", items[0].Owner)

	resp = c.call("removeItem", "Bike")
	assert.Equal(t, apperr.KindNotFound, resp.Kind)
	c.mustOK("removeItem", "Lamp")

	c.mustOK("deleteAccount")
	_, found := f.accounts.FindByEmail("ally@x.com")
	assert.False(t, found)
	resp = c.call("getBalance")
	assert.Equal(t, apperr.KindUnauthenticated, resp.Kind)
}

func TestSendMessageFailures(t *testing.T) {
	f := newFixture(t)
	c := f.connect(t)
	c.mustOK("createAccount", "alice", "alice@x.com", "Passw0rd", 100.0)
	c.mustOK("createAccount", "bob", "bob@x.com", "Passw0rd", 100.0)
	c.mustOK("login", "alice", "Passw0rd")

	resp := c.call("sendMessage", "carol", "hi")
	assert.Equal(t, "FAILURE: Receiver not found", resp.Message)
	resp = c.send(`{"command":"sendMessage","args":["bob",null]}`)
	assert.Equal(t, "Failure: Failed to send message", resp.Message)
	c.mustOK("sendMessage", "bob", "")
}

func TestOnCloseRunsOnce(t *testing.T) {
	f := newFixture(t)
	server, client := net.Pipe()
	sess := NewSession(protocol.NewStreamCodec(server, 0), "pipe", f.accounts, f.convs, nil)
	var (
		mu    sync.Mutex
		calls []uuid.UUID
	)
	sess.OnClose(func(s *Session) {
		mu.Lock()
		calls = append(calls, s.ID())
		mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Serve()
	}()
	sess.Close()
	<-done
	sess.cleanup()
	client.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uuid.UUID{sess.ID()}, calls)
}
