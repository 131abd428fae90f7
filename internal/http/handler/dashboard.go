package handler

import (
	"html/template"
	"net/http"

	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/edirooss/witness-console/internal/domain/detection"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler renders the operator page. Signed-out visitors get the sign-in form.
// The page hydrates itself from /api/live after the first render.
type DashboardHandler struct {
	log      *zap.Logger
	auth     *service.AuthService
	registry *service.RegistryService
	mirror   *service.MirrorService
	tmpl     *template.Template
}

func NewDashboardHandler(log *zap.Logger, auth *service.AuthService, registry *service.RegistryService, mirror *service.MirrorService) *DashboardHandler {
	return &DashboardHandler{
		log:      log.Named("dashboard"),
		auth:     auth,
		registry: registry,
		mirror:   mirror,
		tmpl:     template.Must(template.New("dashboard").Parse(dashboardHTML)),
	}
}

type dashboardView struct {
	SignedIn bool
	Operator string
	Loading  bool
	Cameras  camera.List
	Snapshot detection.Snapshot
	Events   []detection.Event
}

// Index handles GET /.
func (h *DashboardHandler) Index(c *gin.Context) {
	view := dashboardView{}
	if p, ok := h.auth.AuthenticateWithSession(c); ok {
		view = dashboardView{
			SignedIn: true,
			Operator: p.ID,
			Loading:  h.registry.Loading(),
			Cameras:  h.registry.Cameras(),
			Snapshot: h.mirror.Snapshot(),
			Events:   h.mirror.Events(),
		}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := h.tmpl.Execute(c.Writer, view); err != nil {
		c.Error(err)
		h.log.Error("render dashboard", zap.Error(err))
	}
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Witness Console</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: sans-serif; margin: 0; background: #111; color: #eee; }
        header { display: flex; justify-content: space-between; padding: 12px 20px; background: #1c1c1c; }
        main { display: grid; grid-template-columns: 2fr 1fr; gap: 16px; padding: 16px; }
        .panel { background: #1c1c1c; border-radius: 6px; padding: 12px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 10px; }
        .cam img { width: 100%; background: #000; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        td, th { border-bottom: 1px solid #333; padding: 4px; text-align: left; }
        td img { height: 40px; }
        .error { color: #f66; }
        .muted { color: #888; }
    </style>
</head>
<body>
{{if not .SignedIn}}
<main style="grid-template-columns: 1fr;">
    <form class="panel" id="login-form" style="max-width: 320px; margin: 80px auto;">
        <h2>Sign in</h2>
        <p><input name="username" placeholder="Username" autocomplete="username" required></p>
        <p><input name="password" type="password" placeholder="Password" autocomplete="current-password" required></p>
        <p><button type="submit">Sign in</button></p>
        <p class="error" id="login-error"></p>
    </form>
</main>
<script>
document.getElementById('login-form').addEventListener('submit', async (e) => {
    e.preventDefault();
    const f = new FormData(e.target);
    const res = await fetch('/api/login', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({username: f.get('username'), password: f.get('password')}),
    });
    if (res.ok) { location.reload(); return; }
    document.getElementById('login-error').textContent = 'Invalid credentials';
});
</script>
{{else}}
<header>
    <strong>Witness Console</strong>
    <span><span id="loading" class="muted">{{if .Loading}}working…{{end}}</span> {{.Operator}} <button id="logout">Sign out</button></span>
</header>
<main>
    <section class="panel">
        <h2>Cameras</h2>
        <form id="add-form">
            <input name="label" placeholder="Label" required>
            <input name="ip_address" placeholder="rtsp://…" required>
            <button type="submit">Add</button>
            <button type="button" id="delete-all">Stop all</button>
        </form>
        <p class="error" id="camera-error"></p>
        <div class="grid" id="cameras">
            {{range .Cameras}}
            <div class="cam" data-label="{{.Label}}">
                <img src="{{.StreamURL}}" alt="{{.Label}}">
                <div>{{.Label}} <button class="delete" data-label="{{.Label}}">Stop</button></div>
            </div>
            {{else}}
            <p class="muted">No cameras registered.</p>
            {{end}}
        </div>
    </section>
    <section class="panel">
        <h2>Detections</h2>
        <p>Total: people <span id="t-people">{{.Snapshot.Total.People}}</span>,
           vehicles <span id="t-vehicle">{{.Snapshot.Total.Vehicle}}</span>,
           boxes <span id="t-box">{{.Snapshot.Total.Box}}</span>
           <span class="muted" id="t-date">{{.Snapshot.Date}}</span></p>
        <p>
            <select id="per-label">
                {{range .Cameras}}<option>{{.Label}}</option>{{end}}
            </select>
            <button id="per-show">Show</button>
            <span id="per-counts" class="muted"></span>
        </p>
        <h2>Export</h2>
        <form id="export-form">
            <p><input name="start" placeholder="Start"> <input name="end" placeholder="End"></p>
            <p><input name="label" placeholder="Camera"> <input name="class" placeholder="Class"></p>
            <p><button type="submit" name="format" value="pdf">PDF</button>
               <button type="submit" name="format" value="csv">CSV</button></p>
        </form>
        <p class="error" id="export-error"></p>
    </section>
    <section class="panel" style="grid-column: span 2;">
        <h2>Events <span class="muted" id="event-count">{{len .Events}}</span></h2>
        <form id="select-form">
            <input name="type" placeholder="Keep only type (destructive)">
            <button type="submit">Filter</button>
        </form>
        <table>
            <thead><tr><th>Time</th><th>Camera</th><th>Type</th><th>Class</th><th>Event</th><th>Confidence</th><th></th></tr></thead>
            <tbody id="events">
            {{range .Events}}
            <tr><td>{{.Date}} {{.Time}}</td><td>{{.Label}}</td><td>{{.Type}}</td><td>{{.Class}}</td><td>{{.Event}}</td><td>{{printf "%.2f" .Confidence}}</td><td></td></tr>
            {{end}}
            </tbody>
        </table>
    </section>
</main>
<script>
let csrf = '';
async function token() {
    if (!csrf) { csrf = (await (await fetch('/api/csrf')).json()).csrf; }
    return csrf;
}
async function send(method, url, body) {
    const res = await fetch(url, {
        method,
        headers: {'Content-Type': 'application/json', 'X-CSRF-Token': await token()},
        body: body === undefined ? undefined : JSON.stringify(body),
    });
    if (!res.ok) {
        let msg = res.statusText;
        try { msg = (await res.json()).message; } catch (_) {}
        throw new Error(msg);
    }
    return res;
}
function text(tag, value) { const el = document.createElement(tag); el.textContent = value; return el; }

function renderCameras(list) {
    const grid = document.getElementById('cameras');
    const select = document.getElementById('per-label');
    grid.replaceChildren();
    select.replaceChildren();
    if (list.length === 0) { grid.append(text('p', 'No cameras registered.')); }
    for (const cam of list) {
        const card = document.createElement('div');
        card.className = 'cam';
        const img = document.createElement('img');
        img.src = cam.streamUrl;
        img.alt = cam.label;
        const row = text('div', cam.label + ' ');
        const stop = text('button', 'Stop');
        stop.className = 'delete';
        stop.dataset.label = cam.label;
        row.append(stop);
        card.append(img, row);
        grid.append(card);
        select.append(text('option', cam.label));
    }
}
function renderPrecision(s) {
    document.getElementById('t-people').textContent = s.total.people;
    document.getElementById('t-vehicle').textContent = s.total.vehicle;
    document.getElementById('t-box').textContent = s.total.box;
    document.getElementById('t-date').textContent = s.date || '';
}
function eventRow(e) {
    const tr = document.createElement('tr');
    tr.append(text('td', (e.date || '') + ' ' + (e.time || '')), text('td', e.label || ''), text('td', e.type),
        text('td', e.class), text('td', e.event), text('td', (e.confidence || 0).toFixed(2)));
    const td = document.createElement('td');
    if (e.thumbnail) { const img = document.createElement('img'); img.src = 'data:' + (e.mime || 'image/jpeg') + ';base64,' + e.thumbnail; td.append(img); }
    tr.append(td);
    return tr;
}

function renderEvents(events) {
    const body = document.getElementById('events');
    body.replaceChildren(...events.map(eventRow));
    document.getElementById('event-count').textContent = events.length;
}

function appendEvents(m) {
    const body = document.getElementById('events');
    body.append(...m.events.map(eventRow));
    while (body.rows.length > m.total) body.deleteRow(0);
    document.getElementById('event-count').textContent = body.rows.length;
}

const live = new EventSource('/api/live');
live.addEventListener('cameras', (m) => renderCameras(JSON.parse(m.data)));
live.addEventListener('precision', (m) => renderPrecision(JSON.parse(m.data)));
live.addEventListener('events', (m) => renderEvents(JSON.parse(m.data)));
live.addEventListener('events-appended', (m) => appendEvents(JSON.parse(m.data)));

async function status() {
    const s = await (await fetch('/api/status')).json();
    document.getElementById('loading').textContent = s.loading ? 'working…' : (s.subscribed ? 'live' : '');
}

document.getElementById('add-form').addEventListener('submit', async (e) => {
    e.preventDefault();
    const f = new FormData(e.target);
    const err = document.getElementById('camera-error');
    err.textContent = '';
    try {
        const pending = send('POST', '/api/cameras', {label: f.get('label'), ip_address: f.get('ip_address')});
        status();
        await pending;
        e.target.reset();
    } catch (x) { err.textContent = x.message; }
    status();
});
document.getElementById('cameras').addEventListener('click', async (e) => {
    if (!e.target.classList.contains('delete')) return;
    try { await send('DELETE', '/api/cameras/' + encodeURIComponent(e.target.dataset.label)); }
    catch (x) { document.getElementById('camera-error').textContent = x.message; }
    status();
});
document.getElementById('delete-all').addEventListener('click', async () => {
    try { await send('DELETE', '/api/cameras'); }
    catch (x) { document.getElementById('camera-error').textContent = x.message; }
    status();
});
document.getElementById('per-show').addEventListener('click', async () => {
    const label = document.getElementById('per-label').value;
    if (!label) return;
    const p = await (await fetch('/api/precision/' + encodeURIComponent(label))).json();
    document.getElementById('per-counts').textContent = p.camera
        ? p.camera + ': people ' + p.people + ', vehicles ' + p.vehicle + ', boxes ' + p.box
        : 'no counts yet';
});
document.getElementById('select-form').addEventListener('submit', async (e) => {
    e.preventDefault();
    const type = new FormData(e.target).get('type');
    await send('POST', '/api/events/select', {type});
});
document.getElementById('export-form').addEventListener('submit', async (e) => {
    e.preventDefault();
    const format = e.submitter ? e.submitter.value : 'pdf';
    const q = new URLSearchParams(new FormData(e.target));
    q.delete('format');
    const err = document.getElementById('export-error');
    err.textContent = '';
    const res = await fetch('/api/export/' + format + '?' + q.toString());
    if (!res.ok) {
        let msg = res.statusText;
        try { msg = (await res.json()).message; } catch (_) {}
        err.textContent = msg;
        return;
    }
    const a = document.createElement('a');
    a.href = URL.createObjectURL(await res.blob());
    a.download = 'detections.' + format;
    a.click();
    URL.revokeObjectURL(a.href);
});
document.getElementById('logout').addEventListener('click', async () => {
    await send('POST', '/api/logout');
    location.reload();
});
status();
</script>
{{end}}
</body>
</html>
`
