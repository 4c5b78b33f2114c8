package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

func newTestPlugin(id string, actions ...Action) *Plugin {
	return &Plugin{
		ID:               id,
		Name:             "Plugin_" + id,
		Order:            ValidatorOrder,
		EnabledByDefault: true,
		InstanceScoped:   true,
		Actions:          actions,
	}
}

func TestNewProxyRejectsDuplicateIDs(t *testing.T) {
	_, err := NewProxy([]*Plugin{newTestPlugin("p1"), newTestPlugin("p1")})

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	require.Equal(t, "duplicate", lookupErr.Kind)
	require.Equal(t, "p1", lookupErr.PluginID)
}

func TestGetPluginUnknownID(t *testing.T) {
	proxy, err := NewProxy(nil)
	require.NoError(t, err)

	_, err = proxy.GetPlugin("ghost")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestSetPluginActionsConditions(t *testing.T) {
	actions := []Action{
		{ID: "a-all", Name: "always", On: ActionOnAll, Active: true},
		{ID: "a-warn", Name: "on_warning", On: ActionOnFailedOrWarning, Active: true},
		{ID: "a-fail", Name: "on_failure", On: ActionOnFailed, Active: true},
		{ID: "a-off", Name: "disabled", On: ActionOnAll, Active: false},
	}

	cases := []struct {
		name    string
		execErr error
		want    []string
	}{
		{
			name: "no error keeps only always-on",
			want: []string{"a-all"},
		},
		{
			name:    "non-blocking validation error",
			execErr: stagehanderrors.NewWarning("t", "d"),
			want:    []string{"a-all", "a-warn"},
		},
		{
			name:    "blocking validation error",
			execErr: stagehanderrors.NewValidationError("t", "d"),
			want:    []string{"a-all", "a-warn", "a-fail"},
		},
		{
			name:    "wrapped validation error still matches",
			execErr: fmt.Errorf("process: %w", stagehanderrors.NewValidationError("t", "d")),
			want:    []string{"a-all", "a-warn", "a-fail"},
		},
		{
			name:    "unknown error behaves like no validation error",
			execErr: errors.New("boom"),
			want:    []string{"a-all"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proxy, err := NewProxy([]*Plugin{newTestPlugin("p1", actions...)})
			require.NoError(t, err)

			require.NoError(t, proxy.SetPluginActions("p1", tc.execErr))

			items, err := proxy.GetPluginActionItems("p1")
			require.NoError(t, err)
			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ActionID)
			}
			require.Equal(t, tc.want, ids)
		})
	}
}

func TestSetPluginActionsResetsBaselineOnSuccess(t *testing.T) {
	proxy, err := NewProxy([]*Plugin{newTestPlugin(
		"p1",
		Action{ID: "a-warn", Name: "on_warning", On: ActionOnFailedOrWarning, Active: true},
	)})
	require.NoError(t, err)

	require.NoError(t, proxy.SetPluginActions("p1", stagehanderrors.NewWarning("t", "d")))
	items, err := proxy.GetPluginActionItems("p1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	// A later successful execution must clear error-gated actions.
	require.NoError(t, proxy.SetPluginActions("p1", nil))
	items, err = proxy.GetPluginActionItems("p1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestGetActionUnknownID(t *testing.T) {
	proxy, err := NewProxy([]*Plugin{newTestPlugin("p1")})
	require.NoError(t, err)
	require.NoError(t, proxy.SetPluginActions("p1", nil))

	_, err = proxy.GetAction("p1", "ghost")
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	require.Equal(t, "action", lookupErr.Kind)
}

func TestActionItemRoundTrip(t *testing.T) {
	item := ActionItem{
		ActionID: "a1",
		PluginID: "p1",
		Active:   true,
		OnFilter: ActionOnFailed,
		Label:    "Select invalid",
		Icon:     "wrench",
	}

	require.Equal(t, item, ActionItemFromData(item.ToData()))
}

func TestPluginMatchers(t *testing.T) {
	t.Parallel()

	p := &Plugin{Families: []string{"render"}, Targets: []string{"local"}}
	require.True(t, p.MatchesFamilies([]string{"render", "review"}))
	require.False(t, p.MatchesFamilies([]string{"audio"}))
	require.True(t, p.MatchesTargets([]string{"local"}))
	require.False(t, p.MatchesTargets([]string{"farm"}))

	wildcard := &Plugin{Families: []string{"*"}}
	require.True(t, wildcard.MatchesFamilies([]string{"anything"}))

	unfiltered := &Plugin{}
	require.True(t, unfiltered.MatchesFamilies(nil))
	require.True(t, unfiltered.MatchesTargets([]string{"farm"}))
}

func TestPluginEligibility(t *testing.T) {
	t.Parallel()

	require.True(t, (&Plugin{EnabledByDefault: true}).Eligible())
	require.False(t, (&Plugin{}).Eligible())
	// Optional plugins run even when their UI default is off.
	require.True(t, (&Plugin{Optional: true}).Eligible())
}
