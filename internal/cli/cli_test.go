package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tap-analytics-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `Date,Server,Item,Amount
2024-06-01 18:00,Ava,Burger,10.00
2024-06-01 19:00,Ava,Fries,5.00
2024-06-02 20:00,Ben,Burger,25.00
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ANALYTICS_PROFILE", "")
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	path := writeFile(t, "june.csv", salesCSV)

	out, err := execute(t, "analyze", path, "--client", "melrose", "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "melrose", got["clientId"])
	kpis := got["kpis"].(map[string]any)
	assert.InDelta(t, 40.0, kpis["Revenue"], 0.001)
	coverage := got["dataCoverage"].(map[string]any)
	assert.EqualValues(t, 3, coverage["rowCount"])
}

func TestAnalyzeTable(t *testing.T) {
	path := writeFile(t, "june.csv", salesCSV)

	out, err := execute(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Client: local")
	assert.Contains(t, out, "Revenue")
	assert.Contains(t, out, "40.00")
	assert.Contains(t, out, "Employee Performance")
}

func TestAnalyzeWindow(t *testing.T) {
	path := writeFile(t, "june.csv", salesCSV)

	out, err := execute(t, "analyze", path, "--start", "2024-06-02", "--end", "2024-06-03", "-f", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 25.0, got["kpis"].(map[string]any)["Revenue"], 0.001)
}

func TestAnalyzeErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "no files", args: []string{"analyze"}, want: "requires at least 1 arg"},
		{name: "missing file", args: []string{"analyze", "/nonexistent/june.csv"}, want: "read /nonexistent/june.csv"},
		{name: "bad format", args: []string{"analyze", "x.csv", "--format", "yaml"}, want: "unknown format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAdvancedRequiresSales(t *testing.T) {
	_, err := execute(t, "advanced")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales")
}

func TestAdvancedJSON(t *testing.T) {
	sales := writeFile(t, "sales.csv", salesCSV)

	out, err := execute(t, "advanced", "--sales", sales, "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "kpis")
	assert.Contains(t, got, "tables")
	assert.Contains(t, got["kpis"], "food_attachment_rate")
}

func TestSchemaTable(t *testing.T) {
	path := writeFile(t, "june.csv", salesCSV)

	out, err := execute(t, "schema", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Role")
	assert.Contains(t, out, "amount")
	assert.Contains(t, out, "Amount")
	assert.Contains(t, out, "Server")
}

func TestSchemaJSON(t *testing.T) {
	path := writeFile(t, "june.csv", salesCSV)

	out, err := execute(t, "schema", path, "--format", "json")
	require.NoError(t, err)

	var got map[string]*string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got["amount"])
	assert.Equal(t, "Amount", *got["amount"])
	require.NotNil(t, got["item"])
	assert.Equal(t, "Item", *got["item"])
}

func TestTokenRoundTrip(t *testing.T) {
	out, err := execute(t, "token", "--secret", "s3cret", "--subject", "ops", "--clients", "melrose,fancy", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.VerifyAccessToken(strings.TrimSpace(out), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, auth.RoleAnalyst, claims.Role)
	assert.Equal(t, []string{"melrose", "fancy"}, claims.Clients)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")

	_, err = execute(t, "token", "--secret", "x", "--role", "owner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
