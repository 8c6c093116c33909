package rancher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/errors"
)

// powerPayload builds the merge patch that drives a Harvester VM's power
// state. runStrategy replaces the deprecated 'running' field; running is
// set to null to drop it from the spec, otherwise the API rejects the two
// as mutually exclusive.
func powerPayload(start bool) string {
	strategy := "Halted"
	if start {
		strategy = "RerunOnFailure"
	}
	payload := map[string]interface{}{
		"spec": map[string]interface{}{
			"running":     nil,
			"runStrategy": strategy,
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

// PowerVM starts or stops a Harvester VM via `rancher kubectl patch vm`.
// Equivalent to virtctl start/stop but works anywhere the Rancher CLI is
// logged in.
func (s *Service) PowerVM(ctx context.Context, vm, namespace string, running bool) (api.VMPower, error) {
	if namespace == "" {
		namespace = "default"
	}
	_, err := s.Kubectl(ctx, namespace,
		"patch", "vm", vm, "--type", "merge", "-p", powerPayload(running))
	if err != nil {
		return api.VMPower{}, fmt.Errorf("power vm %s: %w", vm, err)
	}

	out := api.VMPower{VM: vm, Namespace: namespace}
	if running {
		out.Status = "Running"
		out.Ready = true
		out.Message = fmt.Sprintf("VM %s started", vm)
	} else {
		out.Status = "Stopped"
		out.Message = fmt.Sprintf("VM %s stopped", vm)
	}
	return out, nil
}

// ListVMs lists Harvester/KubeVirt VMs in a namespace by scraping the
// `get vms` table. kubectl offers no stable structured output for the vm
// CRD through the rancher proxy, so the columns are located by header name.
func (s *Service) ListVMs(ctx context.Context, namespace string) (api.VMList, error) {
	if namespace == "" {
		namespace = "default"
	}
	res, err := s.Kubectl(ctx, namespace, "get", "vms")
	if err != nil {
		return api.VMList{}, fmt.Errorf("list vms: %w", err)
	}

	vms, err := parseVMTable(res.Stdout)
	if err != nil {
		return api.VMList{}, err
	}
	return api.VMList{Namespace: namespace, VMs: vms}, nil
}

// parseVMTable parses `kubectl get vms` output. Expected columns, located
// by header name: NAME, STATUS, READY. Zero data rows (or the bare
// "No resources found" message) is a valid empty result.
func parseVMTable(output string) ([]api.VMSummary, error) {
	lines := nonEmptyLines(output)
	if len(lines) == 0 || strings.HasPrefix(lines[0], "No resources found") {
		return []api.VMSummary{}, nil
	}

	header := strings.Fields(strings.ToUpper(lines[0]))
	nameIdx, statusIdx, readyIdx := -1, -1, -1
	for i, col := range header {
		switch col {
		case "NAME":
			nameIdx = i
		case "STATUS":
			statusIdx = i
		case "READY":
			readyIdx = i
		}
	}
	if nameIdx < 0 || statusIdx < 0 || readyIdx < 0 {
		return nil, errors.New(errors.ErrParse,
			"unexpected vm listing header: "+lines[0],
			"The kubectl output format may have changed; check the CLI version")
	}

	need := nameIdx
	for _, idx := range []int{statusIdx, readyIdx} {
		if idx > need {
			need = idx
		}
	}

	vms := make([]api.VMSummary, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cols := strings.Fields(line)
		if len(cols) <= need {
			return nil, errors.New(errors.ErrParse,
				"unexpected vm row: "+line,
				"The kubectl output format may have changed; check the CLI version")
		}
		vms = append(vms, api.VMSummary{
			Name:   cols[nameIdx],
			Status: cols[statusIdx],
			Ready:  cols[readyIdx] == "True",
		})
	}
	return vms, nil
}
