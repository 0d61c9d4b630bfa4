package gui

import (
	"testing"

	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/require"

	"lfstool/internal/status"
)

func TestImportance(t *testing.T) {
	require.Equal(t, widget.SuccessImportance, importance(status.Success))
	require.Equal(t, widget.DangerImportance, importance(status.Failure))
	require.Equal(t, widget.WarningImportance, importance(status.Busy))
	require.Equal(t, widget.MediumImportance, importance(status.Idle))
}
