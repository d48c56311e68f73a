package session

import (
	"context"
	"regexp"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// usernamePattern matches display usernames accepted from the provider.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@ -]{1,64}$`)

// User is a signed-in person.
type User struct {
	ID       string   `json:"id"`
	Identity string   `json:"identity"`
	Username string   `json:"username"`
	Groups   []string `json:"groups,omitempty"`
	IsOwner  bool     `json:"is_owner"`
	IsKnown  bool     `json:"is_known"`
}

// InGroup reports whether the user belongs to group.
func (u *User) InGroup(group string) bool {
	return u != nil && slices.Contains(u.Groups, group)
}

// Directory keeps every user that has signed in since start.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Directory struct {
	mu         sync.RWMutex
	owner      string
	byID       map[string]*User
	byIdentity map[string]*User
}

// NewDirectory creates a directory. owner is the identity flagged as the
// hub owner (keys/homestar/owner); empty means nobody is.
func NewDirectory(owner string) *Directory {
	return &Directory{
		owner:      owner,
		byID:       make(map[string]*User),
		byIdentity: make(map[string]*User),
	}
}

// Upsert records a sign-in and returns a copy of the stored user.
// A known identity keeps its id; username and groups are replaced.
// nil groups marks the user as not known to this hub.
func (d *Directory) Upsert(identity, username string, groups []string) (*User, error) {
	if identity == "" {
		return nil, ErrInvalidIdentity
	}
	if !usernamePattern.MatchString(username) {
		username = identity
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byIdentity[identity]
	if !ok {
		u = &User{ID: uuid.NewString(), Identity: identity}
		d.byIdentity[identity] = u
		d.byID[u.ID] = u
	}
	u.Username = username
	u.Groups = slices.Clone(groups)
	u.IsKnown = groups != nil
	u.IsOwner = d.owner != "" && identity == d.owner

	return cloneUser(u), nil
}

// Update changes the groups of an existing user.
func (d *Directory) Update(id string, groups []string) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Groups = slices.Clone(groups)
	u.IsKnown = groups != nil
	return cloneUser(u), nil
}

// ByID returns a copy of the user with the given id.
func (d *Directory) ByID(id string) (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return cloneUser(u), true
}

// Owner returns the owner if they have signed in.
func (d *Directory) Owner() (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.owner == "" {
		return nil, false
	}
	u, ok := d.byIdentity[d.owner]
	if !ok {
		return nil, false
	}
	return cloneUser(u), true
}

// Users returns copies of every user ordered by username.
func (d *Directory) Users() []*User {
	d.mu.RLock()
	out := make([]*User, 0, len(d.byID))
	for _, u := range d.byID {
		out = append(out, cloneUser(u))
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneUser(u *User) *User {
	c := *u
	c.Groups = slices.Clone(u.Groups)
	return &c
}

type contextKey string

const ctxKeyUser contextKey = "user"

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFrom returns the signed-in user attached to ctx.
func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*User)
	return u, ok && u != nil
}
