package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/config"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/identity"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/model"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/notification"
	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/repository"
)

var errBackend = errors.New("backend unavailable")

func testConfig() *config.ProvisioningServiceConfig {
	return &config.ProvisioningServiceConfig{
		AppPasswordResetURL: "https://app.example.com/reset-password",
		AppLoginURL:         "https://app.example.com/login",
		Token: config.TokenConfig{
			PasswordResetTokenExpiresIn: 30 * time.Minute,
		},
		Provisioning: config.ProvisioningConfig{
			MinPasswordLength: 6,
			AutoConfirmEmail:  true,
			LinkRetryAttempts: 3,
		},
		Notification: config.NotificationConfig{ProductName: "SkillPassport"},
	}
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type memoryIdentity struct {
	mu         sync.Mutex
	principals map[string]*identity.Principal
	passwords  map[string]string
	nextID     int
	createErr  error
	deleteErr  error
	listErr    error
	updateErr  error
	deletes    int
}

func newMemoryIdentity() *memoryIdentity {
	return &memoryIdentity{principals: map[string]*identity.Principal{}, passwords: map[string]string{}}
}

func (m *memoryIdentity) CreatePrincipal(_ context.Context, params identity.CreatePrincipalParams) (*identity.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, p := range m.principals {
		if strings.EqualFold(p.Email, params.Email) {
			return nil, identity.ErrPrincipalExists
		}
	}

	m.nextID++
	p := &identity.Principal{
		ID:             fmt.Sprintf("principal-%d", m.nextID),
		Email:          params.Email,
		EmailConfirmed: params.Confirmed,
		Metadata:       params.Metadata,
	}
	m.principals[p.ID] = p
	m.passwords[p.ID] = params.Password
	return p, nil
}

func (m *memoryIdentity) DeletePrincipal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.principals[id]; !ok {
		return identity.ErrPrincipalNotFound
	}
	delete(m.principals, id)
	return nil
}

func (m *memoryIdentity) ListPrincipals(context.Context) ([]*identity.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*identity.Principal, 0, len(m.principals))
	for _, p := range m.principals {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryIdentity) UpdatePrincipalPassword(_ context.Context, id, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.principals[id]; !ok {
		return identity.ErrPrincipalNotFound
	}
	m.passwords[id] = newPassword
	return nil
}

func (m *memoryIdentity) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.principals)
}

func (m *memoryIdentity) passwordFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.principals {
		if p.Email == email {
			return m.passwords[id]
		}
	}
	return ""
}

type memoryAccounts struct {
	mu             sync.Mutex
	rows           map[string]*model.Account
	createErr      error
	deleteErr      error
	updateFailures int
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{rows: map[string]*model.Account{}}
}

func (m *memoryAccounts) CreateAccount(_ context.Context, a *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, row := range m.rows {
		if strings.EqualFold(row.Email, a.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	cp := *a
	m.rows[a.ID] = &cp
	return a, nil
}

func (m *memoryAccounts) GetAccount(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccounts) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if strings.EqualFold(row.Email, email) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccounts) UpdateAccountOrganization(_ context.Context, id, organizationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateFailures > 0 {
		m.updateFailures--
		return errBackend
	}
	row, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.OrganizationID = &organizationID
	return nil
}

func (m *memoryAccounts) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryAccounts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryOrganizations struct {
	mu        sync.Mutex
	rows      map[string]*model.Organization
	nextID    int
	createErr error
	codeErr   error
}

func newMemoryOrganizations() *memoryOrganizations {
	return &memoryOrganizations{rows: map[string]*model.Organization{}}
}

func (m *memoryOrganizations) CreateOrganization(_ context.Context, org *model.Organization) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, row := range m.rows {
		if strings.EqualFold(row.Code, org.Code) {
			return nil, repository.ErrDuplicate
		}
	}
	m.nextID++
	org.ID = fmt.Sprintf("org-%d", m.nextID)
	cp := *org
	m.rows[org.ID] = &cp
	return org, nil
}

func (m *memoryOrganizations) GetOrganization(_ context.Context, kind model.OrganizationKind, id string) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok || row.Kind != kind {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memoryOrganizations) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeErr != nil {
		return false, m.codeErr
	}
	for _, row := range m.rows {
		if strings.EqualFold(row.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryOrganizations) seed(kind model.OrganizationKind, code, name string) *model.Organization {
	org, _ := m.CreateOrganization(context.Background(), &model.Organization{Kind: kind, Code: code, Name: name})
	return org
}

func (m *memoryOrganizations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryMembers struct {
	mu        sync.Mutex
	rows      []*model.Member
	createErr error
}

func (m *memoryMembers) CreateMember(_ context.Context, member *model.Member) (*model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	member.ID = fmt.Sprintf("member-%d", len(m.rows)+1)
	cp := *member
	m.rows = append(m.rows, &cp)
	return member, nil
}

type memoryTokens struct {
	mu        sync.Mutex
	rows      map[string]*model.PasswordResetToken
	nextID    int
	deleteErr error
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{rows: map[string]*model.PasswordResetToken{}}
}

func (m *memoryTokens) CreateToken(_ context.Context, token *model.PasswordResetToken) (*model.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	token.ID = fmt.Sprintf("token-%d", m.nextID)
	cp := *token
	m.rows[token.TokenHash] = &cp
	return token, nil
}

func (m *memoryTokens) GetTokenByHash(_ context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memoryTokens) ConsumeToken(_ context.Context, tokenHash string, now time.Time) (*model.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[tokenHash]
	if !ok || row.Expired(now) {
		return nil, repository.ErrNotFound
	}
	delete(m.rows, tokenHash)
	return row, nil
}

func (m *memoryTokens) DeleteTokensByEmail(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for hash, row := range m.rows {
		if row.Email == email {
			delete(m.rows, hash)
			n++
		}
	}
	return n, nil
}

func (m *memoryTokens) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for hash, row := range m.rows {
		if row.Expired(now) {
			delete(m.rows, hash)
			n++
		}
	}
	return n, nil
}

func (m *memoryTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// gatedTokens holds every GetTokenByHash caller until n of them have arrived,
// so concurrent confirms all pass the lookup before any of them proceeds.
type gatedTokens struct {
	*memoryTokens
	arrived sync.WaitGroup
}

func newGatedTokens(inner *memoryTokens, n int) *gatedTokens {
	g := &gatedTokens{memoryTokens: inner}
	g.arrived.Add(n)
	return g
}

func (g *gatedTokens) GetTokenByHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	token, err := g.memoryTokens.GetTokenByHash(ctx, tokenHash)
	g.arrived.Done()
	g.arrived.Wait()
	return token, err
}

type sentMessage struct {
	channel   notification.Channel
	recipient string
	msg       notification.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
	sms  bool
}

func (n *recordingNotifier) Send(_ context.Context, channel notification.Channel, recipient string, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentMessage{channel: channel, recipient: recipient, msg: msg})
	return n.err
}

func (n *recordingNotifier) Available(channel notification.Channel) bool {
	return channel == notification.ChannelEmail || (channel == notification.ChannelSMS && n.sms)
}

func (n *recordingNotifier) lastResetToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i := len(n.sent) - 1; i >= 0; i-- {
		if data, ok := n.sent[i].msg.Data.(notification.PasswordResetData); ok {
			return data.Token
		}
	}
	return ""
}
