package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/daycare-hub/apiserver/types"
)

// View is a named screen: where it lives, which endpoint feeds it and which
// roles may see it.
type View struct {
	Name     string
	Location string
	Endpoint string
	Roles    []types.Role
}

var views = map[string]View{
	"profile": {
		Name:     "profile",
		Location: "/profile",
		Endpoint: "/auth/me",
	},
	"accounts": {
		Name:     "accounts",
		Location: "/accounts",
		Endpoint: "/accounts/",
		Roles:    []types.Role{types.RoleSupervisor, types.RoleAdmin},
	},
}

func LookupView(name string) (View, bool) {
	v, ok := views[name]
	return v, ok
}

// ViewNames lists the known views in a stable order.
func ViewNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Navigator runs the guard for a view and, when it may render, fetches the
// view's data.
type Navigator struct {
	client   *Client
	sessions *FileSessionStore
	guard    *Guard
}

func NewNavigator(client *Client, sessions *FileSessionStore) *Navigator {
	return &Navigator{client: client, sessions: sessions, guard: NewGuard(sessions)}
}

// Open returns the navigation decision for the named view and, on Render,
// the raw JSON the server returned for it.
func (n *Navigator) Open(ctx context.Context, name string) (Decision, json.RawMessage, error) {
	view, ok := LookupView(name)
	if !ok {
		return Decision{}, nil, fmt.Errorf("unknown view %q", name)
	}

	decision := n.guard.Check(view.Location, view.Roles...)
	if decision.Action != Render {
		return decision, nil, nil
	}

	session, err := n.sessions.Load()
	if err != nil {
		return Decision{}, nil, err
	}

	var data json.RawMessage
	err = n.client.Get(ctx, view.Endpoint, session.Token, &data)
	if err == nil {
		return decision, data, nil
	}

	switch status := StatusCode(err); status {
	case http.StatusUnauthorized:
		if clearErr := n.sessions.Clear(); clearErr != nil {
			return Decision{}, nil, errors.Join(err, clearErr)
		}
		return RedirectForStatus(status, view.Location), nil, nil
	case http.StatusForbidden:
		return RedirectForStatus(status, view.Location), nil, nil
	default:
		return Decision{}, nil, err
	}
}
