// Package kube implements the pod, namespace, deployment, and cluster-level
// actions on top of a kubectl gateway. Structured output (-o json) is used
// wherever kubectl offers it; human-readable tables are only scraped where
// no structured mode exists, and then strictly.
package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kdlocpanda/vision/internal/api"
	"github.com/kdlocpanda/vision/internal/errors"
	"github.com/kdlocpanda/vision/internal/logger"
	"github.com/kdlocpanda/vision/internal/runner"
)

// DefaultNamespace is used when an action is called without one.
const DefaultNamespace = "default"

// Gateway executes kubectl argument vectors, scoped to a namespace when one
// is given. The production implementation routes through `rancher kubectl`
// with a fresh login per call.
type Gateway interface {
	Kubectl(ctx context.Context, namespace string, args ...string) (runner.Result, error)
}

// Service exposes the kubectl-backed actions.
type Service struct {
	cli Gateway
	log logger.Logger
}

// NewService wires a Service around the kubectl gateway.
func NewService(cli Gateway) *Service {
	return &Service{
		cli: cli,
		log: logger.NewEnvLogger("[kube]"),
	}
}

func (s *Service) kubectl(ctx context.Context, namespace string, args ...string) (runner.Result, error) {
	return s.cli.Kubectl(ctx, namespace, args...)
}

// podListDoc is the subset of `kubectl get pods -o json` the actions need.
type podListDoc struct {
	Items []struct {
		Metadata struct {
			Name              string `json:"name"`
			CreationTimestamp string `json:"creationTimestamp"`
		} `json:"metadata"`
		Status struct {
			Phase             string `json:"phase"`
			ContainerStatuses []struct {
				Ready        bool `json:"ready"`
				RestartCount int  `json:"restartCount"`
			} `json:"containerStatuses"`
		} `json:"status"`
	} `json:"items"`
}

// ListPods lists pods in a namespace. An empty namespace is a valid,
// successful empty result.
func (s *Service) ListPods(ctx context.Context, namespace string) (api.PodList, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	res, err := s.kubectl(ctx, namespace, "get", "pods", "-o", "json")
	if err != nil {
		return api.PodList{}, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	var doc podListDoc
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return api.PodList{}, errors.WrapWithCode(err, errors.ErrParse,
			"kubectl returned something that isn't a pod list",
			"Check the kubectl version supports -o json")
	}

	pods := make([]api.PodSummary, 0, len(doc.Items))
	for _, item := range doc.Items {
		ready, restarts := 0, 0
		for _, cs := range item.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		pods = append(pods, api.PodSummary{
			Name:     item.Metadata.Name,
			Status:   item.Status.Phase,
			Ready:    strconv.Itoa(ready) + "/" + strconv.Itoa(len(item.Status.ContainerStatuses)),
			Restarts: restarts,
			Created:  item.Metadata.CreationTimestamp,
		})
	}

	return api.PodList{Namespace: namespace, Count: len(pods), Pods: pods}, nil
}

// PodLogs tails the last tailLines lines of a pod's logs.
func (s *Service) PodLogs(ctx context.Context, pod, namespace string, tailLines int) (api.PodLogs, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if tailLines <= 0 {
		tailLines = 50
	}

	res, err := s.kubectl(ctx, namespace, "logs", pod, "--tail", strconv.Itoa(tailLines))
	if err != nil {
		return api.PodLogs{}, fmt.Errorf("logs for pod %s: %w", pod, err)
	}

	return api.PodLogs{
		Pod:       pod,
		Namespace: namespace,
		TailLines: tailLines,
		Logs:      res.Stdout,
	}, nil
}

// DeletePod deletes one pod by name.
func (s *Service) DeletePod(ctx context.Context, pod, namespace string) (api.PodDelete, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	if _, err := s.kubectl(ctx, namespace, "delete", "pod", pod); err != nil {
		return api.PodDelete{}, fmt.Errorf("delete pod %s: %w", pod, err)
	}
	return api.PodDelete{Pod: pod, Namespace: namespace}, nil
}

// namespaceListDoc is the subset of `kubectl get namespaces -o json` needed.
type namespaceListDoc struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"items"`
}

// ListNamespaces lists all namespaces in the cluster.
func (s *Service) ListNamespaces(ctx context.Context) (api.NamespaceList, error) {
	res, err := s.kubectl(ctx, "", "get", "namespaces", "-o", "json")
	if err != nil {
		return api.NamespaceList{}, fmt.Errorf("list namespaces: %w", err)
	}

	var doc namespaceListDoc
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return api.NamespaceList{}, errors.WrapWithCode(err, errors.ErrParse,
			"kubectl returned something that isn't a namespace list",
			"Check the kubectl version supports -o json")
	}

	names := make([]string, 0, len(doc.Items))
	for _, item := range doc.Items {
		names = append(names, item.Metadata.Name)
	}
	return api.NamespaceList{Count: len(names), Namespaces: names}, nil
}

// deploymentListDoc is the subset of `kubectl get deployments -o json` needed.
type deploymentListDoc struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Spec struct {
			Replicas int `json:"replicas"`
		} `json:"spec"`
		Status struct {
			AvailableReplicas int `json:"availableReplicas"`
		} `json:"status"`
	} `json:"items"`
}

// ListDeployments lists deployments in a namespace with derived health.
func (s *Service) ListDeployments(ctx context.Context, namespace string) (api.DeploymentList, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	res, err := s.kubectl(ctx, namespace, "get", "deployments", "-o", "json")
	if err != nil {
		return api.DeploymentList{}, fmt.Errorf("list deployments in %s: %w", namespace, err)
	}

	var doc deploymentListDoc
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return api.DeploymentList{}, errors.WrapWithCode(err, errors.ErrParse,
			"kubectl returned something that isn't a deployment list",
			"Check the kubectl version supports -o json")
	}

	deployments := make([]api.Deployment, 0, len(doc.Items))
	for _, item := range doc.Items {
		deployments = append(deployments, api.Deployment{
			Name:              item.Metadata.Name,
			DesiredReplicas:   item.Spec.Replicas,
			AvailableReplicas: item.Status.AvailableReplicas,
			Health:            deploymentHealth(item.Spec.Replicas, item.Status.AvailableReplicas),
		})
	}

	return api.DeploymentList{
		Namespace:   namespace,
		Count:       len(deployments),
		Deployments: deployments,
	}, nil
}

func deploymentHealth(desired, available int) string {
	switch {
	case available == desired:
		return "Healthy"
	case available > 0:
		return "Degraded"
	default:
		return "Unhealthy"
	}
}

// RawKubectl runs an arbitrary kubectl command in the given namespace. Any
// namespace flags embedded in the command string are stripped first so the
// request namespace always wins. The command is split on whitespace and
// passed as an argv vector; there is no shell interpretation.
func (s *Service) RawKubectl(ctx context.Context, command, namespace string) (api.CommandResult, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	args := stripNamespaceArgs(strings.Fields(command))
	if len(args) == 0 {
		return api.CommandResult{}, errors.New(errors.ErrConfig,
			"kubectl command is empty",
			"Pass a command like 'get pods' or 'describe deployment web'")
	}

	res, err := s.kubectl(ctx, namespace, args...)
	if err != nil {
		return api.CommandResult{
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: res.ExitCode,
		}, err
	}

	return api.CommandResult{Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

// stripNamespaceArgs removes -n/--namespace flags and their values from an
// argument vector.
func stripNamespaceArgs(args []string) []string {
	out := make([]string, 0, len(args))
	skip := false
	for _, a := range args {
		if skip {
			skip = false
			continue
		}
		switch {
		case a == "-n" || a == "--namespace":
			skip = true
		case strings.HasPrefix(a, "--namespace="), strings.HasPrefix(a, "-n="):
			// value embedded, drop in one go
		default:
			out = append(out, a)
		}
	}
	return out
}
