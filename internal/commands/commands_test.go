package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panvault-dev/panvault/internal/exchange"
	"github.com/panvault-dev/panvault/internal/txlog"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "panvault-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "panvault")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/panvault")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runPanvault(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr, "output: %s", out)
		return string(out), exitErr.ExitCode()
	}
	return string(out), 0
}

func initSite(t *testing.T, label, key string) string {
	t.Helper()
	dir := t.TempDir()
	out, code := runPanvault(t, "init", dir, "--label", label, "--signing-key", key)
	require.Zero(t, code, out)
	return dir
}

func addRohan(t *testing.T, dir string) {
	t.Helper()
	out, code := runPanvault(t, "--dir", dir, "citizen", "add", "ABCDE1234F",
		"--name", "Rohan Sharma", "--dob", "1995-03-12",
		"--street", "14 MG Road", "--city", "Pune", "--state", "Maharashtra")
	require.Zero(t, code, out)
}

func TestInit(t *testing.T) {
	dir := initSite(t, "site-a", "secret")

	data, err := os.ReadFile(filepath.Join(dir, "panvault.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "label: site-a")
	assert.Contains(t, string(data), "signature_scope: payload")

	info, err := os.Stat(filepath.Join(dir, "exchange"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Re-initializing an existing site fails.
	out, code := runPanvault(t, "init", dir, "--label", "site-a", "--signing-key", "secret")
	assert.NotZero(t, code, out)
}

func TestInit_RequiresLabel(t *testing.T) {
	_, code := runPanvault(t, "init", t.TempDir(), "--signing-key", "secret")
	assert.NotZero(t, code)
}

func TestCitizenLifecycle(t *testing.T) {
	dir := initSite(t, "site-a", "secret")
	addRohan(t, dir)

	out, code := runPanvault(t, "--dir", dir, "citizen", "show", "ABCDE1234F")
	require.Zero(t, code, out)
	assert.Contains(t, out, "Rohan Sharma")
	assert.Contains(t, out, "1995-03-12")

	out, code = runPanvault(t, "--dir", dir, "citizen", "update", "ABCDE1234F",
		"--phone", "+91 98200 12345")
	require.Zero(t, code, out)
	assert.Contains(t, out, "version 2")

	out, code = runPanvault(t, "--dir", dir, "citizen", "search", "--pan-prefix", "ABC")
	require.Zero(t, code, out)
	assert.Contains(t, out, "1 match(es)")

	out, code = runPanvault(t, "--dir", dir, "citizen", "delete", "ABCDE1234F")
	require.Zero(t, code, out)

	out, code = runPanvault(t, "--dir", dir, "citizen", "show", "ABCDE1234F")
	assert.Equal(t, 1, code, out)
}

func TestCitizenAdd_BadPAN(t *testing.T) {
	dir := initSite(t, "site-a", "secret")

	out, code := runPanvault(t, "--dir", dir, "citizen", "add", "ABCDE123F",
		"--name", "X", "--dob", "1990-01-01")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, out, "invalid_format")
}

func TestBankingScenario(t *testing.T) {
	dir := initSite(t, "site-a", "secret")
	addRohan(t, dir)

	out, code := runPanvault(t, "--dir", dir, "account", "open", "1234567890",
		"--pan", "ABCDE1234F", "--type", "savings", "--balance", "5000",
		"--branch", "Pune Main Branch")
	require.Zero(t, code, out)

	// Below the savings floor of 1000.
	out, code = runPanvault(t, "--dir", dir, "withdraw", "1234567890", "--amount", "4500")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, out, "insufficient_funds")

	out, code = runPanvault(t, "--dir", dir, "withdraw", "1234567890", "--amount", "3000")
	require.Zero(t, code, out)
	assert.Contains(t, out, "balance 2000.00")

	out, code = runPanvault(t, "--dir", dir, "deposit", "1234567890", "--amount", "150.25")
	require.Zero(t, code, out)
	assert.Contains(t, out, "balance 2150.25")

	// Transaction log captured both mutations.
	entries, err := txlog.New(filepath.Join(dir, "transactions.csv")).ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, txlog.KindWithdraw, entries[0].Kind)
	assert.Equal(t, txlog.KindDeposit, entries[1].Kind)

	out, code = runPanvault(t, "--dir", dir, "account", "close", "1234567890")
	require.Zero(t, code, out)
	out, code = runPanvault(t, "--dir", dir, "deposit", "1234567890", "--amount", "1")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, out, "conflict")
}

func TestExchangeFlow_TwoSites(t *testing.T) {
	siteA := initSite(t, "site-a", "shared-key")
	siteB := initSite(t, "site-b", "shared-key")

	addRohan(t, siteA)
	out, code := runPanvault(t, "--dir", siteA, "account", "open", "1234567890",
		"--pan", "ABCDE1234F", "--type", "savings", "--balance", "5000",
		"--branch", "Pune Main Branch")
	require.Zero(t, code, out)
	out, code = runPanvault(t, "--dir", siteA, "withdraw", "1234567890", "--amount", "3000")
	require.Zero(t, code, out)

	out, code = runPanvault(t, "--dir", siteA, "export", "--out", "pan_data.xml")
	require.Zero(t, code, out)
	assert.Contains(t, out, "Exported 1 citizen(s)")

	docPath := filepath.Join(siteA, "exchange", "pan_data.xml")

	out, code = runPanvault(t, "--dir", siteB, "validate", docPath)
	require.Zero(t, code, out)
	assert.Contains(t, out, "Document is valid")

	out, code = runPanvault(t, "--dir", siteB, "import", docPath)
	require.Zero(t, code, out)
	assert.Contains(t, out, "2 accepted, 0 rejected")

	out, code = runPanvault(t, "--dir", siteB, "citizen", "show", "ABCDE1234F")
	require.Zero(t, code, out)
	assert.Contains(t, out, "Rohan Sharma")
	assert.Contains(t, out, "2000.00")

	// Second import: signature still good, records rejected as duplicates.
	out, code = runPanvault(t, "--dir", siteB, "import", docPath)
	require.Zero(t, code, out)
	assert.Contains(t, out, "0 accepted, 2 rejected")
}

func TestImport_TamperedDocumentExitCode(t *testing.T) {
	siteA := initSite(t, "site-a", "shared-key")
	siteB := initSite(t, "site-b", "shared-key")
	addRohan(t, siteA)

	out, code := runPanvault(t, "--dir", siteA, "export", "--out", "pan_data.xml")
	require.Zero(t, code, out)

	docPath := filepath.Join(siteA, "exchange", "pan_data.xml")
	doc, err := exchange.ParseFile(docPath)
	require.NoError(t, err)
	doc.Citizens[0].Name = "Mohan Sharma"
	require.NoError(t, doc.WriteFile(docPath))

	out, code = runPanvault(t, "--dir", siteB, "import", docPath)
	assert.Equal(t, 3, code, "signature failures exit 3: %s", out)
}

func TestValidate_BadDocumentExitCode(t *testing.T) {
	siteA := initSite(t, "site-a", "shared-key")
	addRohan(t, siteA)

	out, code := runPanvault(t, "--dir", siteA, "export", "--out", "pan_data.xml")
	require.Zero(t, code, out)

	docPath := filepath.Join(siteA, "exchange", "pan_data.xml")
	doc, err := exchange.ParseFile(docPath)
	require.NoError(t, err)
	doc.Citizens[0].DOB = "not-a-date"
	require.NoError(t, doc.WriteFile(docPath))

	out, code = runPanvault(t, "--dir", siteA, "validate", docPath)
	assert.Equal(t, 2, code, "validation failures exit 2: %s", out)
	assert.Contains(t, out, "DOB")
}
