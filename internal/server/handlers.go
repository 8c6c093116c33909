package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/logger"
)

type handlers struct {
	svc Services
	log logger.Logger
}

// statusFor maps error codes to HTTP statuses. Configuration problems are
// the caller's to fix; everything else is an upstream failure.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrConfig:
		return http.StatusBadRequest
	case errors.ErrTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrExec, errors.ErrSSH, errors.ErrParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.log.Error("encoding response: %v", err)
	}
}

func (h *handlers) ok(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, api.OK(data))
}

func (h *handlers) fail(w http.ResponseWriter, err error) {
	h.writeJSON(w, statusFor(err), api.Fail(err))
}

// decode parses a JSON request body into dst.
func (h *handlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"request body is not valid JSON",
			"Send a JSON object matching the endpoint's request shape")
	}
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	h.ok(w, map[string]string{"status": "ok"})
}

func (h *handlers) listPods(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Kube.ListPods(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, list)
}

func (h *handlers) podLogs(w http.ResponseWriter, r *http.Request) {
	tail := 0
	if raw := r.URL.Query().Get("tail"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, errors.New(errors.ErrConfig,
				"tail must be an integer",
				"Pass something like ?tail=100"))
			return
		}
		tail = n
	}

	logs, err := h.svc.Kube.PodLogs(r.Context(), r.PathValue("name"),
		r.URL.Query().Get("namespace"), tail)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, logs)
}

func (h *handlers) deletePod(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Kube.DeletePod(r.Context(), r.PathValue("name"),
		r.URL.Query().Get("namespace"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, out)
}

func (h *handlers) listNamespaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Kube.ListNamespaces(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, list)
}

func (h *handlers) listDeployments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Kube.ListDeployments(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, list)
}

func (h *handlers) clusterInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Kube.ClusterInfo(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, info)
}

type rawKubectlRequest struct {
	Command   string `json:"command"`
	Namespace string `json:"namespace"`
}

func (h *handlers) rawKubectl(w http.ResponseWriter, r *http.Request) {
	var req rawKubectlRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.svc.Kube.RawKubectl(r.Context(), req.Command, req.Namespace)
	if err != nil {
		// The command ran but exited non-zero: report its output in the
		// envelope alongside the error so callers can see stderr.
		if errors.IsCode(err, errors.ErrExec) && result.ExitCode != 0 {
			env := api.Fail(err)
			env.Data = result
			h.writeJSON(w, statusFor(err), env)
			return
		}
		h.fail(w, err)
		return
	}
	h.ok(w, result)
}

func (h *handlers) currentContext(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.Rancher.CurrentContext()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, current)
}

type setContextRequest struct {
	Context string `json:"context"`
}

func (h *handlers) setContext(w http.ResponseWriter, r *http.Request) {
	var req setContextRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	current, err := h.svc.Rancher.SetContext(r.Context(), req.Context)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, current)
}

func (h *handlers) listContexts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Rancher.ListContexts(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, list)
}

func (h *handlers) listVMs(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Rancher.ListVMs(r.Context(), r.URL.Query().Get("namespace"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, list)
}

type powerVMRequest struct {
	Action    string `json:"action"`
	Namespace string `json:"namespace"`
}

func (h *handlers) powerVM(w http.ResponseWriter, r *http.Request) {
	var req powerVMRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	var running bool
	switch req.Action {
	case "start":
		running = true
	case "stop":
		running = false
	default:
		h.fail(w, errors.New(errors.ErrConfig,
			"action must be 'start' or 'stop'",
			`Send {"action": "start"} or {"action": "stop"}`))
		return
	}

	out, err := h.svc.Rancher.PowerVM(r.Context(), r.PathValue("name"), req.Namespace, running)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, out)
}

type kubeconfigRequest struct {
	Cluster string `json:"cluster"`
	Path    string `json:"path"`
}

func (h *handlers) downloadKubeconfig(w http.ResponseWriter, r *http.Request) {
	var req kubeconfigRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.svc.Rancher.DownloadKubeconfig(r.Context(), req.Cluster, req.Path)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, out)
}

type visionExecRequest struct {
	Command string `json:"command"`
}

func (h *handlers) visionExec(w http.ResponseWriter, r *http.Request) {
	var req visionExecRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if req.Command == "" {
		h.fail(w, errors.New(errors.ErrConfig,
			"command is empty",
			`Send {"command": "uptime"}`))
		return
	}

	result, err := h.svc.Vision.Execute(r.Context(), req.Command)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.ok(w, result)
}
