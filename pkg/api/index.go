package api

import (
	"html/template"
	"net/http"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/config"
	"github.com/maylhq/mayl/pkg/dispatch"
	"github.com/maylhq/mayl/pkg/email"
)

// IndexHandler renders the HTML status dashboard at GET /.
type IndexHandler struct {
	dispatcher *dispatch.Dispatcher
	creds      *email.Credentials
	cfg        *config.Config
	tmpl       *template.Template
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(dispatcher *dispatch.Dispatcher, creds *email.Credentials, cfg *config.Config) *IndexHandler {
	return &IndexHandler{
		dispatcher: dispatcher,
		creds:      creds,
		cfg:        cfg,
		tmpl:       template.Must(template.New("index").Parse(indexTemplate)),
	}
}

type indexData struct {
	QueueSize      int64
	ArchiveSize    int64
	Domains        []string
	SMTPHost       string
	SMTPPort       int
	SMTPConfigured bool
	SMTPUser       string
}

// Index handles GET /.
func (ih *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	stats, err := ih.dispatcher.Stats()
	if err != nil {
		glog.Errorf("failed to read stats for dashboard: %v", err)
		http.Error(w, "Cannot read stats", http.StatusInternalServerError)
		return
	}

	domains, err := ih.dispatcher.ListDomains()
	if err != nil {
		glog.Errorf("failed to list domains for dashboard: %v", err)
		http.Error(w, "Cannot list domains", http.StatusInternalServerError)
		return
	}
	names := make([]string, 0, len(domains))
	for _, d := range domains {
		names = append(names, d.Domain)
	}

	user, _ := ih.creds.Get()
	data := indexData{
		QueueSize:      stats.QueueSize,
		ArchiveSize:    stats.ArchiveSize,
		Domains:        names,
		SMTPHost:       ih.cfg.SMTPHost,
		SMTPPort:       ih.cfg.SMTPPort,
		SMTPConfigured: ih.creds.Configured(),
		SMTPUser:       user,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ih.tmpl.Execute(w, data); err != nil {
		glog.Errorf("failed to render dashboard: %v", err)
	}
}

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>mayl</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: system-ui, -apple-system, sans-serif; background: #0a0a0a; color: #e0e0e0; padding: 2rem; }
.container { max-width: 640px; margin: 0 auto; }
h1 { font-size: 2rem; margin-bottom: 0.5rem; color: #fff; }
.subtitle { color: #888; margin-bottom: 2rem; }
.card { background: #161616; border: 1px solid #2a2a2a; border-radius: 8px; padding: 1.25rem; margin-bottom: 1rem; }
.card h2 { font-size: 0.875rem; text-transform: uppercase; letter-spacing: 0.05em; color: #888; margin-bottom: 0.75rem; }
.stat-grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 1rem; }
.stat .value { font-size: 1.5rem; font-weight: 600; color: #fff; }
.stat .label { font-size: 0.75rem; color: #888; }
.domain-list { list-style: none; }
.domain-list li { padding: 0.375rem 0; border-bottom: 1px solid #2a2a2a; font-family: monospace; font-size: 0.875rem; }
.domain-list li:last-child { border-bottom: none; }
.empty { color: #555; font-style: italic; font-size: 0.875rem; }
.smtp-info { font-family: monospace; font-size: 0.875rem; color: #aaa; }
.routes { font-family: monospace; font-size: 0.875rem; }
.routes dt { color: #6cb6ff; }
.routes dd { color: #888; margin-bottom: 0.5rem; margin-left: 1rem; }
</style>
</head>
<body>
<div class="container">
<h1>mayl</h1>
<p class="subtitle">email sending API</p>

<div class="card">
<h2>Status</h2>
<div class="stat-grid">
<div class="stat"><div class="value">{{.QueueSize}}</div><div class="label">queued</div></div>
<div class="stat"><div class="value">{{.ArchiveSize}}</div><div class="label">sent</div></div>
</div>
</div>

<div class="card">
<h2>Domains</h2>
{{if .Domains}}
<ul class="domain-list">
{{range .Domains}}<li>{{.}}</li>
{{end}}
</ul>
{{else}}
<p class="empty">No domains configured</p>
{{end}}
</div>

<div class="card">
<h2>SMTP</h2>
<p class="smtp-info">{{.SMTPHost}}:{{.SMTPPort}}</p>
{{if .SMTPConfigured}}
<p class="smtp-info">credentials: {{.SMTPUser}}</p>
{{else}}
<p class="empty">no credentials configured</p>
{{end}}
</div>

<div class="card">
<h2>API</h2>
<dl class="routes">
<dt>POST /domains</dt><dd>Register a domain, get a token</dd>
<dt>GET /domains</dt><dd>List registered domains</dd>
<dt>DELETE /domains/{domain}</dt><dd>Remove a domain</dd>
<dt>GET /smtp</dt><dd>SMTP credential status</dd>
<dt>POST /smtp</dt><dd>Set SMTP credentials</dd>
<dt>POST /email</dt><dd>Queue an email (Authorization: Bearer &lt;token&gt;)</dd>
<dt>POST /email?sync=true</dt><dd>Send immediately</dd>
<dt>GET /health</dt><dd>Queue and archive stats (JSON)</dd>
</dl>
</div>
</div>
</body>
</html>
`
