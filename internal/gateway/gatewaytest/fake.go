// Package gatewaytest provides an in-memory gateway for service and handler tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/gateway"
)

type Thread struct {
	ID        string
	ChannelID string
	Name      string
	Locked    bool
	Archived  bool
	Messages  []gateway.Message
}

type Sent struct {
	ChannelID string
	Message   gateway.Message
}

// Fake is a single-guild-agnostic platform held in memory. Fail* fields inject errors.
type Fake struct {
	mu sync.Mutex

	Guilds  map[string]gateway.Guild
	Roles   map[string][]gateway.Role
	Members map[string]map[string]*gateway.Member
	Threads map[string]*Thread
	Sent    []Sent

	FailAddRole      error
	FailRemoveRole   error
	FailCreateThread error
	FailSendMessage  error
	FailFetchMember  error
	// FailAddRoleIDs fails AddRole for the listed role ids only
	FailAddRoleIDs map[string]error

	FetchMemberCalls int
	AddRoleCalls     int
	AddRoleReasons   []string
	RemoveRoleCalls  int

	nextID int
}

func New() *Fake {
	return &Fake{
		Guilds:  make(map[string]gateway.Guild),
		Roles:   make(map[string][]gateway.Role),
		Members: make(map[string]map[string]*gateway.Member),
		Threads: make(map[string]*Thread),
	}
}

// AddGuild registers a guild with roles named names; role ids are "role-<name>"
func (f *Fake) AddGuild(guildID, name string, roleNames ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Guilds[guildID] = gateway.Guild{ID: guildID, Name: name}
	for _, rn := range roleNames {
		f.Roles[guildID] = append(f.Roles[guildID], gateway.Role{ID: RoleID(rn), Name: rn})
	}
	if f.Members[guildID] == nil {
		f.Members[guildID] = make(map[string]*gateway.Member)
	}
}

// AddMember puts a member holding the named roles in a guild
func (f *Fake) AddMember(guildID, userID, username string, roleNames ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Members[guildID] == nil {
		f.Members[guildID] = make(map[string]*gateway.Member)
	}
	m := &gateway.Member{ID: userID, Username: username}
	for _, rn := range roleNames {
		m.RoleIDs = append(m.RoleIDs, RoleID(rn))
	}
	f.Members[guildID][userID] = m
}

// RoleID is the id the fake gives a role name
func RoleID(name string) string {
	return "role-" + name
}

// RoleNames returns a member's role names, sorted
func (f *Fake) RoleNames(guildID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.Members[guildID][userID]
	if m == nil {
		return nil
	}
	var names []string
	for _, id := range m.RoleIDs {
		for _, r := range f.Roles[guildID] {
			if r.ID == id {
				names = append(names, r.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (f *Fake) Thread(id string) *Thread {
	f.mu.Lock()
	defer f.mu.Unlock()

	th := f.Threads[id]
	if th == nil {
		return nil
	}
	cp := *th
	return &cp
}

func (f *Fake) SentTo(channelID string) []gateway.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []gateway.Message
	for _, s := range f.Sent {
		if s.ChannelID == channelID {
			out = append(out, s.Message)
		}
	}
	return out
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", constants.ErrGatewayUnavailable, err)
}

func (f *Fake) SendMessage(_ context.Context, channelID string, msg gateway.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailSendMessage != nil {
		return "", unavailable(f.FailSendMessage)
	}
	f.Sent = append(f.Sent, Sent{ChannelID: channelID, Message: msg})
	if th := f.Threads[channelID]; th != nil {
		th.Messages = append(th.Messages, msg)
	}
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID), nil
}

func (f *Fake) CreateThread(_ context.Context, channelID, name string, _ time.Duration, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailCreateThread != nil {
		return "", unavailable(f.FailCreateThread)
	}
	f.nextID++
	id := fmt.Sprintf("thread-%d", f.nextID)
	f.Threads[id] = &Thread{ID: id, ChannelID: channelID, Name: name}
	return id, nil
}

func (f *Fake) EditThreadName(_ context.Context, threadID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	th := f.Threads[threadID]
	if th == nil {
		return gateway.ErrNotFound
	}
	th.Name = name
	return nil
}

func (f *Fake) LockThread(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	th := f.Threads[threadID]
	if th == nil {
		return gateway.ErrNotFound
	}
	th.Locked = true
	return nil
}

func (f *Fake) ArchiveThread(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	th := f.Threads[threadID]
	if th == nil {
		return gateway.ErrNotFound
	}
	th.Archived = true
	return nil
}

func (f *Fake) FetchMemberRoles(_ context.Context, guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.FetchMemberCalls++
	if f.FailFetchMember != nil {
		return nil, unavailable(f.FailFetchMember)
	}
	m := f.Members[guildID][userID]
	if m == nil {
		return nil, gateway.ErrNotFound
	}
	return append([]string(nil), m.RoleIDs...), nil
}

func (f *Fake) AddRole(_ context.Context, guildID, userID, roleID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.AddRoleCalls++
	f.AddRoleReasons = append(f.AddRoleReasons, reason)
	if f.FailAddRole != nil {
		return unavailable(f.FailAddRole)
	}
	if err := f.FailAddRoleIDs[roleID]; err != nil {
		return unavailable(err)
	}
	m := f.Members[guildID][userID]
	if m == nil {
		return gateway.ErrNotFound
	}
	for _, id := range m.RoleIDs {
		if id == roleID {
			return nil
		}
	}
	m.RoleIDs = append(m.RoleIDs, roleID)
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, guildID, userID, roleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RemoveRoleCalls++
	if f.FailRemoveRole != nil {
		return unavailable(f.FailRemoveRole)
	}
	m := f.Members[guildID][userID]
	if m == nil {
		return gateway.ErrNotFound
	}
	kept := m.RoleIDs[:0]
	for _, id := range m.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	m.RoleIDs = kept
	return nil
}

func (f *Fake) FetchRoleCatalog(_ context.Context, guildID string) ([]gateway.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]gateway.Role(nil), f.Roles[guildID]...), nil
}

func (f *Fake) FetchGuild(_ context.Context, guildID string) (*gateway.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.Guilds[guildID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return &g, nil
}

func (f *Fake) FetchMembers(_ context.Context, guildID string) ([]gateway.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]gateway.Member, 0, len(f.Members[guildID]))
	for _, m := range f.Members[guildID] {
		cp := *m
		cp.RoleIDs = append([]string(nil), m.RoleIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) ActiveThreadIDs(_ context.Context, _ string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make(map[string]bool)
	for id, th := range f.Threads {
		if !th.Archived {
			ids[id] = true
		}
	}
	return ids, nil
}

var _ gateway.Gateway = (*Fake)(nil)
