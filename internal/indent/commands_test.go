package indent

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mikelcalvo/indent-cli/internal/mockapi"
)

func TestCommandsAgainstMockAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := mockapi.NewServer()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	client := NewClient(&Config{APIURL: ts.URL, Brand: DefaultBrand, LogFile: DefaultLogFile})
	ctx := context.Background()

	assert.NoError(t, client.CmdPing(ctx))
	assert.NoError(t, client.CmdConfig())
	assert.NoError(t, client.CmdMasters(ctx, nil))
	assert.NoError(t, client.CmdMasters(ctx, []string{SetIndentItems}))
	assert.ErrorContains(t, client.CmdMasters(ctx, []string{"warehouses"}), "unknown master set")

	srv.Fail("/api/master-dropdowns/", 500)
	assert.ErrorContains(t, client.CmdPing(ctx), "connection failed")
}
