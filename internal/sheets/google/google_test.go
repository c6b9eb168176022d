package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "spesometro/internal/sheets"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:      "test-id",
		ServiceAccountFile: t.TempDir() + "/missing.json",
	})
	assert.ErrorContains(t, err, "read service account file")
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Spesometro"}

	_, err := c.WriteMonthReport(context.Background(), ports.MonthReport{Year: 2024, Month: time.March})
	assert.ErrorContains(t, err, "not initialized")

	_, _, err = c.ReadMonthReport(context.Background(), 2024, time.March)
	assert.ErrorContains(t, err, "not initialized")
}

func TestMonthTabName(t *testing.T) {
	assert.Equal(t, "2024-03 Spesometro", monthTabName(" Spesometro ", 2024, time.March))
	assert.Equal(t, "2025-12 Report", monthTabName("Report", 2025, time.December))
}
