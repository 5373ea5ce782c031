package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func readReport(t *testing.T, dir string, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestWriteValidationReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteValidationReport(types.ValidationReport{Records: []types.ValidationRecord{
		{Level: types.ValidationLevelWarn, Code: "manifest-dup", Subject: "requests", Message: "duplicate pin"},
		{Level: types.ValidationLevelError, Code: "fleet-owner", Subject: "forum-monitor", Message: "no owners"},
	}})
	require.NoError(t, err)

	content := readReport(t, dir, "validate.report")
	assert.Equal(t,
		"error,fleet-owner,forum-monitor,no owners\n"+
			"warn,manifest-dup,requests,duplicate pin",
		content)
}

func TestWritePlan(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WritePlan(types.DeployPlan{
		Fleet:       "forum-monitor",
		Fingerprint: "forum-monitor-aabbcc001122",
		Entries: []types.PlanEntry{
			{Function: "send_notifications", Revision: "ffee00112233", Region: "europe-west3", Reason: "path"},
			{Function: "check_topics", Revision: "aabbccddeeff", Region: "europe-west3", Reason: "full"},
		},
	})
	require.NoError(t, err)

	content := readReport(t, dir, "fleet.plan")
	assert.Equal(t,
		"# plan forum-monitor-aabbcc001122\n"+
			"function=check_topics revision=aabbccddeeff region=europe-west3 reason=full\n"+
			"function=send_notifications revision=ffee00112233 region=europe-west3 reason=path\n",
		content)
}

func TestWriteRenderReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteRenderReport([]types.RenderedWorkflow{
		{Function: "webhook_bot", File: ".github/workflows/deploy_webhook_bot.yml", Revision: "a1b2c3d4e5f6"},
		{Function: "check_topics", File: ".github/workflows/deploy_check_topics.yml", Revision: "aabbccddeeff"},
	})
	require.NoError(t, err)

	content := readReport(t, dir, "render.report")
	assert.Equal(t,
		"workflow=.github/workflows/deploy_check_topics.yml function=check_topics revision=aabbccddeeff\n"+
			"workflow=.github/workflows/deploy_webhook_bot.yml function=webhook_bot revision=a1b2c3d4e5f6",
		content)
}

func TestWriteArchiveReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteArchiveReport([]types.ArchiveInfo{
		{Function: "check_topics", Revision: "aabbccddeeff", Path: "out/check_topics.zip", Bytes: 2048},
	})
	require.NoError(t, err)

	content := readReport(t, dir, "archive.report")
	assert.Equal(t, "function=check_topics revision=aabbccddeeff archive=out/check_topics.zip bytes=2048", content)
}

func TestWriteDeployReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteDeployReport([]types.DeployReportEntry{
		{Function: "send_notifications", Revision: "ffee00112233", Status: types.DeployStatusFailed, Detail: "preflight"},
		{Function: "check_topics", Revision: "aabbccddeeff", Status: types.DeployStatusOK, Detail: ""},
	})
	require.NoError(t, err)

	content := readReport(t, dir, "deploy.report")
	assert.Equal(t,
		"check_topics,aabbccddeeff,ok,\n"+
			"send_notifications,ffee00112233,failed,preflight",
		content)
}

func TestWriteAuditReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteAuditReport([]types.AuditFinding{
		{Level: types.ValidationLevelWarn, Package: "requests", Message: "newer version available"},
		{Level: types.ValidationLevelError, Package: "lxml", Message: "version yanked"},
	})
	require.NoError(t, err)

	content := readReport(t, dir, "audit.report")
	assert.Equal(t,
		"error,lxml,version yanked\n"+
			"warn,requests,newer version available",
		content)
}

func TestWriteResolutionReport(t *testing.T) {
	dir := t.TempDir()
	out := NewOutputFileAdapter(dir)

	err := out.WriteResolutionReport(types.ResolutionReport{Records: []types.ResolutionRecord{
		{Package: "requests", UseVersion: "2.31.0", Reason: "known good", Owner: "platform-team", ExpiresAt: "2025-01-01"},
	}})
	require.NoError(t, err)

	content := readReport(t, dir, "resolution.report")
	assert.Equal(t, "requests,2.31.0,known good,platform-team,2025-01-01", content)
}

func TestOutputAdapterEmptyDir(t *testing.T) {
	out := NewOutputFileAdapter("")
	err := out.WritePlan(types.DeployPlan{Fingerprint: "x-000000000000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is empty")
}
