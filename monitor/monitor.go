package monitor

import (
	"net/http"
	"os"

	"assignment-management-api/config"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorPage serves a small status page that polls /api/v1/health and the log tail.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(monitorPage))
	})
}

// RegisterLogsRoute exposes the backend log file to holders of token.
// An empty token disables the route.
func RegisterLogsRoute(router *gin.Engine, token string) {
	router.GET("/logs", func(c *gin.Context) {
		if token == "" || c.Query("token") != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", logData)
	})
}

const monitorPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Assignment API Monitor</title>
  <style>
    body { background: #0f0f0f; color: #e0e0e0; font-family: system-ui, sans-serif; padding: 20px; }
    .card { background: rgba(255,255,255,0.05); border: 1px solid rgba(255,255,255,0.1); border-radius: 12px; padding: 1rem; margin-bottom: 1rem; }
    #logs { max-height: 70vh; overflow: auto; white-space: pre-wrap; font-size: 12px; }
    input { background: #111; color: #e0e0e0; border: 1px solid #333; padding: 4px 8px; }
  </style>
</head>
<body>
  <div class="card"><span id="status">Status: checking...</span></div>
  <div class="card">
    <label>Log token <input id="token" type="password" /></label>
    <pre id="logs"></pre>
  </div>
  <script>
    const statusEl = document.getElementById('status');
    const logsEl = document.getElementById('logs');
    const tokenEl = document.getElementById('token');

    function fetchStatus() {
      fetch('/api/v1/health')
        .then(res => res.json())
        .then(data => { statusEl.textContent = 'Status: ' + (data.status === 'ok' ? 'online' : 'degraded'); })
        .catch(() => { statusEl.textContent = 'Status: offline'; });
    }

    function fetchLogs() {
      if (!tokenEl.value) return;
      fetch('/logs?token=' + encodeURIComponent(tokenEl.value))
        .then(res => res.text())
        .then(data => { logsEl.textContent = data; logsEl.scrollTop = logsEl.scrollHeight; });
    }

    fetchStatus();
    setInterval(fetchStatus, 5000);
    setInterval(fetchLogs, 5000);
  </script>
</body>
</html>`
