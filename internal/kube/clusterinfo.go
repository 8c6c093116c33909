package kube

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kdlocpanda/vision/internal/api"
)

// ansiEscape matches ANSI escape sequences; kubectl cluster-info colors its
// output even when piped.
var ansiEscape = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// nodeListDoc is the subset of `kubectl get nodes -o json` needed.
type nodeListDoc struct {
	Items []struct {
		Status struct {
			NodeInfo struct {
				OSImage string `json:"osImage"`
			} `json:"nodeInfo"`
		} `json:"status"`
	} `json:"items"`
}

// ClusterInfo assembles a cluster overview from several kubectl calls.
// Partial failures degrade the reported status instead of failing the whole
// action: a cluster that can't serve /healthz is still worth describing.
func (s *Service) ClusterInfo(ctx context.Context) (api.ClusterInfo, error) {
	info := api.ClusterInfo{
		KubernetesVersion: "Unknown",
		Platform:          "Unknown",
		ClusterStatus:     "Ready",
		CoreServices:      map[string]string{},
	}

	if res, err := s.kubectl(ctx, "", "version", "--short"); err == nil {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, "Server Version") {
				parts := strings.SplitN(line, ": ", 2)
				if len(parts) == 2 {
					info.KubernetesVersion = strings.TrimSpace(parts[1])
				}
				break
			}
		}
	} else {
		s.log.Warn("kubectl version failed, version will be Unknown: %v", err)
	}

	if res, err := s.kubectl(ctx, "", "cluster-info"); err == nil {
		for _, line := range strings.Split(stripANSI(res.Stdout), "\n") {
			parts := strings.SplitN(line, " is running at ", 2)
			if len(parts) != 2 {
				continue
			}
			service := strings.TrimSpace(parts[0])
			endpoint := strings.TrimSpace(parts[1])
			if strings.Contains(service, "Kubernetes control plane") {
				info.ControlPlaneEndpoint = endpoint
			} else {
				info.CoreServices[service] = endpoint
			}
		}
	} else {
		s.log.Warn("kubectl cluster-info failed, endpoints will be missing: %v", err)
		info.ClusterStatus = "Unknown"
	}

	if res, err := s.kubectl(ctx, "", "get", "nodes", "-o", "json"); err == nil {
		var doc nodeListDoc
		if jsonErr := json.Unmarshal([]byte(res.Stdout), &doc); jsonErr == nil {
			info.NodeCount = len(doc.Items)
			if len(doc.Items) > 0 {
				info.Platform = doc.Items[0].Status.NodeInfo.OSImage
			}
		}
	} else {
		s.log.Warn("couldn't list nodes: %v", err)
	}

	if res, err := s.kubectl(ctx, "", "get", "--raw", "/healthz"); err == nil {
		if strings.TrimSpace(res.Stdout) != "ok" {
			info.ClusterStatus = "Degraded"
		}
	} else {
		s.log.Warn("couldn't read /healthz, status may be inaccurate: %v", err)
		if info.ClusterStatus != "Unknown" {
			info.ClusterStatus = "Unhealthy"
		}
	}

	return info, nil
}
