package publish

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

func newErrorsFixture(t *testing.T) (*ValidationErrors, *plugin.Plugin, *plugin.Plugin) {
	t.Helper()

	p1 := &plugin.Plugin{
		ID:    "p1",
		Name:  "ValidateMesh",
		Order: plugin.ValidatorOrder,
		Actions: []plugin.Action{
			{ID: "a1", Name: "select_invalid", On: plugin.ActionOnFailedOrWarning, Active: true},
		},
	}
	p2 := &plugin.Plugin{ID: "p2", Name: "ValidateNames", Order: plugin.ValidatorOrder}

	proxy, err := plugin.NewProxy([]*plugin.Plugin{p1, p2})
	require.NoError(t, err)

	verrs := NewValidationErrors()
	verrs.Reset(proxy)
	return verrs, p1, p2
}

func TestAddErrorSubstitutesPluginLabelAsTitle(t *testing.T) {
	verrs, p1, _ := newErrorsFixture(t)

	verrs.AddError(p1, stagehanderrors.NewWarning("", "missing UVs"), nil)

	items := verrs.CreateReport().Items()
	require.Len(t, items, 1)
	require.Equal(t, "ValidateMesh", items[0].Title)
	require.True(t, items[0].ContextValidation)
}

func TestAddErrorCachesActionItemsOnFirstFailure(t *testing.T) {
	verrs, p1, _ := newErrorsFixture(t)
	instance := &model.Instance{ID: "i1", Name: "renderMain"}

	// First failure happens with the warning-gated action active.
	require.NoError(t, verrs.proxy.SetPluginActions("p1", stagehanderrors.NewWarning("t", "d")))
	verrs.AddError(p1, stagehanderrors.NewWarning("t", "d"), instance)

	// By the second failure the plugin ran again without error, so its live
	// action set is empty. The cached set from the first failure must win.
	require.NoError(t, verrs.proxy.SetPluginActions("p1", nil))
	verrs.AddError(p1, stagehanderrors.NewWarning("t", "d"), instance)

	groups := verrs.CreateReport().GroupItemsByTitle()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].PluginActionItems, 1)
	require.Equal(t, "a1", groups[0].PluginActionItems[0].ActionID)
}

func TestReportBlockingFlags(t *testing.T) {
	verrs, p1, p2 := newErrorsFixture(t)

	verrs.AddError(p1, stagehanderrors.NewWarning("soft", "d"), nil)
	report := verrs.CreateReport()
	require.False(t, report.HasBlockingErrors)
	require.True(t, report.HasNonBlockingErrors)

	verrs.AddError(p2, stagehanderrors.NewValidationError("hard", "d"), nil)
	report = verrs.CreateReport()
	require.True(t, report.HasBlockingErrors)
	require.True(t, report.HasNonBlockingErrors)
}

func TestGroupItemsByTitlePreservesFirstSeenOrder(t *testing.T) {
	verrs, p1, p2 := newErrorsFixture(t)

	verrs.AddError(p1, stagehanderrors.NewWarning("A", "d"), nil)
	verrs.AddError(p2, stagehanderrors.NewWarning("B", "d"), nil)
	verrs.AddError(p1, stagehanderrors.NewWarning("A", "d"), nil)
	verrs.AddError(p1, stagehanderrors.NewWarning("C", "d"), nil)

	groups := verrs.CreateReport().GroupItemsByTitle()
	require.Len(t, groups, 3)

	require.Equal(t, "p1", groups[0].PluginID)
	require.Equal(t, "A", groups[0].Title)
	require.Len(t, groups[0].ErrorItems, 2)

	require.Equal(t, "p2", groups[1].PluginID)
	require.Equal(t, "B", groups[1].Title)

	require.Equal(t, "p1", groups[2].PluginID)
	require.Equal(t, "C", groups[2].Title)
}

func TestReportRoundTrip(t *testing.T) {
	verrs, p1, p2 := newErrorsFixture(t)

	require.NoError(t, verrs.proxy.SetPluginActions("p1", stagehanderrors.NewWarning("t", "d")))
	verrs.AddError(p1, stagehanderrors.NewWarning("A", "first"), &model.Instance{ID: "i1", Name: "renderMain"})
	verrs.AddError(p2, stagehanderrors.NewValidationError("B", "second"), nil)

	original := verrs.CreateReport()
	restored := ValidationErrorsReportFromData(original.ToData())

	require.Equal(t, original.HasBlockingErrors, restored.HasBlockingErrors)
	require.Equal(t, original.HasNonBlockingErrors, restored.HasNonBlockingErrors)
	require.Equal(t, original.Items(), restored.Items())

	originalGroups := original.GroupItemsByTitle()
	restoredGroups := restored.GroupItemsByTitle()
	require.Len(t, restoredGroups, len(originalGroups))
	for i := range originalGroups {
		// Group ids are freshly generated on every call.
		require.Equal(t, originalGroups[i].PluginID, restoredGroups[i].PluginID)
		require.Equal(t, originalGroups[i].Title, restoredGroups[i].Title)
		require.Equal(t, originalGroups[i].ErrorItems, restoredGroups[i].ErrorItems)
		require.Equal(t, originalGroups[i].PluginActionItems, restoredGroups[i].PluginActionItems)
	}
}

func TestReportRoundTripSurvivesJSONTransfer(t *testing.T) {
	verrs, p1, p2 := newErrorsFixture(t)

	require.NoError(t, verrs.proxy.SetPluginActions("p1", stagehanderrors.NewWarning("t", "d")))
	verrs.AddError(p1, stagehanderrors.NewWarning("A", "first"), &model.Instance{ID: "i1", Name: "renderMain"})
	verrs.AddError(p2, stagehanderrors.NewValidationError("B", "second"), nil)

	original := verrs.CreateReport()

	// JSON decoding turns the item lists into []any; the report must come
	// back intact, not empty.
	encoded, err := json.Marshal(original.ToData())
	require.NoError(t, err)
	var transferred map[string]any
	require.NoError(t, json.Unmarshal(encoded, &transferred))

	restored := ValidationErrorsReportFromData(transferred)

	require.Equal(t, original.Items(), restored.Items())
	require.True(t, restored.HasBlockingErrors)
	require.True(t, restored.HasNonBlockingErrors)

	groups := restored.GroupItemsByTitle()
	require.Len(t, groups, 2)
	require.Equal(t, "p1", groups[0].PluginID)
	require.Len(t, groups[0].PluginActionItems, 1)
	require.Equal(t, "a1", groups[0].PluginActionItems[0].ActionID)
}
