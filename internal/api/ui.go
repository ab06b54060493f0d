package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"deskmate/internal/pages"
	"deskmate/internal/task"
)

var uiTemplates = template.Must(template.New("layout").Parse(`{{define "layout"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Deskmate</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:880px;margin:32px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    header{margin-bottom:24px}
    h1{font-size:22px;margin:0 0 8px}
    a{color:#0b63e5;text-decoration:none}
    a:hover{text-decoration:underline}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px;margin:12px 0}
    .row{display:flex;gap:12px;flex-wrap:wrap}
    .btn{display:inline-block;background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    .btn.secondary{background:#444}
    input[type=text]{padding:9px 10px;border:1px solid #dcdcdc;border-radius:8px;width:100%}
    .muted{color:#666}
    .mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace}
    .list{margin:0;padding-left:18px}
    .status{display:inline-block;padding:4px 8px;border-radius:6px;background:#efefef;font-size:12px}
    .status.processing{background:#fff3cd}
    .status.completed{background:#d7f5dd}
    .status.error{background:#ffd7d4}
    .bar{display:flex;gap:8px;flex-wrap:wrap;align-items:center}
    .tag{font-size:16px}
    footer{margin-top:24px;color:#666;font-size:12px}
  </style>
  </head>
<body>
  <header>
    <h1><a href="/">Deskmate</a></h1>
    <div class="muted">Floating-window shell state · batch PDF/image tasks</div>
  </header>
  {{template "content" .}}
  <footer>
    <div>API base: <span class="mono">/api/v1</span></div>
  </footer>
</body>
</html>
{{end}}

{{define "home"}}
  {{template "layout" .}}
{{end}}

{{define "content"}}
  {{if .Error}}
  <div class="card" style="border-color:#f2b8b5;background:#fff6f6">
    <strong style="color:#b3261e">Error:</strong> <span class="muted">{{.Error}}</span>
  </div>
  {{end}}

  <div class="card">
    <h2>Windows</h2>
    {{if .Windows}}
      <ul class="list">
      {{range .Windows}}
        <li>
          <span class="mono">{{.ID}}</span> · {{.Title}}
          <span class="muted">z={{.ZIndex}} at ({{.Position.X}},{{.Position.Y}}) {{.Size.Width}}×{{.Size.Height}}{{if .Maximized}} · maximized{{end}}{{if ne (printf "%s" .Snap) "none"}} · snapped {{.Snap}}{{end}}</span>
          <form method="post" action="/ui/windows/{{.ID}}/focus" style="display:inline"><button class="btn secondary" type="submit">Focus</button></form>
          <form method="post" action="/ui/windows/{{.ID}}/minimize" style="display:inline"><button class="btn secondary" type="submit">Minimize</button></form>
          <form method="post" action="/ui/windows/{{.ID}}/close" style="display:inline"><button class="btn secondary" type="submit">Close</button></form>
        </li>
      {{end}}
      </ul>
    {{else}}
      <div class="muted">No windows open</div>
    {{end}}
  </div>

  {{if .MinimizedBar}}
  <div class="card">
    <h3>Minimized</h3>
    <div class="bar">
    {{range .MinimizedBar}}
      <form method="post" action="/ui/windows/{{.ID}}/restore" style="display:inline"><button class="btn secondary" type="submit">{{.Title}}</button></form>
      <form method="post" action="/ui/windows/{{.ID}}/close" style="display:inline"><button class="btn secondary" type="submit">×</button></form>
    {{end}}
    </div>
  </div>
  {{end}}

  <div class="card">
    <h2>Tasks</h2>
    <ul class="list">
    {{range .Tasks}}
      <li>
        <a href="/ui/tasks/{{.Type}}"><span class="mono">{{.Type}}</span></a>
        <span class="status {{.Status}}">{{.Status}}</span>
        {{if .Total}}<span class="muted">{{.Progress}}/{{.Total}}</span>{{end}}
        {{if .FileName}}<span class="muted">· {{.FileName}}</span>{{end}}
      </li>
    {{end}}
    </ul>
  </div>

  <div class="card">
    <h2>Page ranges</h2>
    <form method="post" action="/ui/ranges">
      <div class="row">
        <input type="text" name="input" placeholder="1,3-5, 8 – 10" value="{{.RangeInput}}" />
        <button class="btn" type="submit">Parse</button>
      </div>
    </form>
    {{if .RangeResult}}
      {{range .RangeResult.Errors}}<div class="muted" style="color:#b3261e">{{.}}</div>{{end}}
      {{if .RangeTagged}}
        <ul class="list">
        {{range .RangeTagged}}
          <li><span class="tag">{{.Tag}}</span> <span class="mono">{{.Range.Raw}}</span> <span class="muted">pages {{.Pages}}</span></li>
        {{end}}
        </ul>
      {{end}}
    {{end}}
  </div>
{{end}}

{{define "task"}}
  {{template "layout_task" .}}
{{end}}

{{define "layout_task"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Deskmate · {{.Task.Type}}</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:880px;margin:32px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    h1{font-size:22px;margin:0 0 8px}
    a{color:#0b63e5;text-decoration:none}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px;margin:12px 0}
    .btn{display:inline-block;background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    .btn.secondary{background:#444}
    .muted{color:#666}
    .mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace}
    .list{margin:0;padding-left:18px}
    .status{display:inline-block;padding:4px 8px;border-radius:6px;background:#efefef;font-size:12px}
  </style>
  </head>
<body>
  <header><h1><a href="/">Deskmate</a></h1></header>
  {{template "content-task" .}}
</body>
</html>
{{end}}

{{define "content-task"}}
  <div class="card">
    <h2>Task <span class="mono">{{.Task.Type}}</span></h2>
    <div>Status: <span class="status">{{.Task.Status}}</span></div>
    {{if .Task.Total}}<div class="muted">Progress: {{.Task.Progress}}/{{.Task.Total}}</div>{{end}}
    {{if .Task.FileName}}<div class="muted">Artifact: <span class="mono">{{.Task.FileName}}</span></div>{{end}}
  </div>

  <div class="card">
    <h3>Run</h3>
    <form method="post" action="/api/v1/tasks/{{.Task.Type}}/run" enctype="multipart/form-data">
      <input type="file" name="files" multiple />
      <div style="margin-top:12px">
        <button class="btn" type="submit">Start</button>
        <a class="btn secondary" href="/ui/tasks/{{.Task.Type}}" style="margin-left:8px">Refresh</a>
      </div>
    </form>
    <form method="post" action="/ui/tasks/{{.Task.Type}}/reset" style="margin-top:8px">
      <button class="btn secondary" type="submit">Reset</button>
    </form>
  </div>

  <div class="card">
    <h3>Log</h3>
    {{if .Task.Logs}}
      <ul class="list">
      {{range .Task.Logs}}
        <li><span class="muted mono">{{.Timestamp.Format "15:04:05"}}</span> [{{.Severity}}] {{.Message}}</li>
      {{end}}
      </ul>
    {{else}}
      <div class="muted">No log entries</div>
    {{end}}
  </div>

  <div class="card">
    <h3>Artifact</h3>
    <a class="btn" href="/api/v1/tasks/{{.Task.Type}}/artifact">Download</a>
    <span class="muted" style="margin-left:8px">Link works when status is completed</span>
  </div>
{{end}}
`))

// RegisterUIRoutes registers minimal HTML UI without JS.
func (a *API) RegisterUIRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(uiTemplates)
	router.GET("/", a.UIHome)
	router.POST("/ui/ranges", a.UIParseRanges)
	router.GET("/ui/tasks/:type", a.UITask)
	router.POST("/ui/tasks/:type/reset", a.UIResetTask)
	router.POST("/ui/windows/:id/focus", a.uiWindowOp(func(id string) error { _, err := a.windows.Focus(id); return err }))
	router.POST("/ui/windows/:id/minimize", a.uiWindowOp(a.windows.Minimize))
	router.POST("/ui/windows/:id/restore", a.uiWindowOp(a.windows.Restore))
	router.POST("/ui/windows/:id/close", a.uiWindowOp(a.windows.Close))
}

func (a *API) homeData() gin.H {
	return gin.H{
		"Windows":      a.windows.Stacked(),
		"MinimizedBar": a.windows.Minimized(),
		"Tasks":        a.tracker.All(),
		"RangeInput":   "",
		"RangeResult":  nil,
		"RangeTagged":  nil,
	}
}

// UIHome renders the desktop page.
func (a *API) UIHome(c *gin.Context) { c.HTML(http.StatusOK, "home", a.homeData()) }

// UIParseRanges parses the submitted selection and renders it inline.
func (a *API) UIParseRanges(c *gin.Context) {
	input := c.PostForm("input")
	result := pages.ParseRangeInput(input)
	data := a.homeData()
	data["RangeInput"] = input
	data["RangeResult"] = result
	if len(result.Ranges) > 0 {
		data["RangeTagged"] = pages.GroupTagsWithRanges(result.Ranges)
	}
	c.HTML(http.StatusOK, "home", data)
}

// UITask renders one task page.
func (a *API) UITask(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	if st, ok := a.tracker.Get(taskType); ok {
		c.HTML(http.StatusOK, "task", gin.H{"Task": st})
		return
	}
	data := a.homeData()
	data["Error"] = "unknown task type"
	c.HTML(http.StatusNotFound, "home", data)
}

// UIResetTask resets the task and returns to its page.
func (a *API) UIResetTask(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	if _, err := a.tracker.Reset(taskType); err != nil {
		data := a.homeData()
		data["Error"] = err.Error()
		c.HTML(http.StatusNotFound, "home", data)
		return
	}
	c.Redirect(http.StatusFound, "/ui/tasks/"+string(taskType))
}

// uiWindowOp applies a window operation and redirects back to the desktop.
func (a *API) uiWindowOp(op func(id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(c.Param("id")); err != nil {
			data := a.homeData()
			data["Error"] = err.Error()
			c.HTML(http.StatusNotFound, "home", data)
			return
		}
		c.Redirect(http.StatusFound, "/")
	}
}
