package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
plm:
  baseURL: https://r1132100001-eu1-space.3dexperience.3ds.com/enovia
  tenant: R1132100001
  securityContext: VPLMProjectLeader.Company Name.Common Space
  timeoutSeconds: 5
session:
  JSESSIONID: abc
  SERVERID: node1
server:
  postgresDsn: host=localhost user=postgres dbname=enovia
  redisAddr: localhost:6379
mirror:
  concurrency: 2
  filter: '{"op":"Eq","args":[{"op":"Load","args":[{"const":"state"}]},{"const":"RELEASED"}]}'
`

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(write(t, sample))
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, "ctx::VPLMProjectLeader.Company Name.Common Space", conf.PLM.SecurityContext)
	assert.Equal(t, map[string]string{"JSESSIONID": "abc", "SERVERID": "node1"}, conf.Session)
	assert.Equal(t, 5*time.Second, conf.PLM.Timeout())
	assert.Equal(t, DefaultBatchSize, conf.Mirror.BatchSize)
	assert.Equal(t, 2, conf.Mirror.Concurrency)
	assert.Equal(t, DefaultSignalChannel, conf.Server.SignalChannel)
	assert.Contains(t, conf.Mirror.Filter, `"op":"Eq"`)

	cc := conf.PLM.ClientConfig()
	assert.Equal(t, "R1132100001", cc.Tenant)
	assert.Equal(t, 5*time.Second, cc.Timeout)
}

func TestValidate(t *testing.T) {
	conf, err := Load(write(t, "plm:\n  securityContext: Leader.Org.Space\n"))
	require.NoError(t, err)
	assert.ErrorContains(t, conf.Validate(), "baseURL")

	conf.PLM.BaseURL = "https://example.com"
	conf.PLM.SecurityContext = "ctx::Leader"
	assert.ErrorContains(t, conf.Validate(), "Role.Organization.Collabspace")

	conf.PLM.SecurityContext = ""
	assert.ErrorContains(t, conf.Validate(), "securityContext")

	assert.Equal(t, DefaultTimeout, PLM{}.Timeout())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
