// Package api defines the typed response records the actions produce and
// the JSON envelope they travel in. Records are constructed fresh per
// request from parsed CLI/SSH output and have no identity beyond the
// response itself.
package api

// PodSummary is one pod row from `kubectl get pods -o json`.
type PodSummary struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Ready    string `json:"ready"`
	Restarts int    `json:"restarts"`
	Created  string `json:"created,omitempty"`
}

// PodList is the response for the list-pods action.
type PodList struct {
	Namespace string       `json:"namespace"`
	Count     int          `json:"pod_count"`
	Pods      []PodSummary `json:"pods"`
}

// PodLogs is the response for the pod-logs action.
type PodLogs struct {
	Pod       string `json:"pod_name"`
	Namespace string `json:"namespace"`
	TailLines int    `json:"tail_lines"`
	Logs      string `json:"logs"`
}

// PodDelete is the response for the delete-pod action.
type PodDelete struct {
	Pod       string `json:"pod_name"`
	Namespace string `json:"namespace"`
}

// NamespaceList is the response for the list-namespaces action.
type NamespaceList struct {
	Count      int      `json:"total_namespaces"`
	Namespaces []string `json:"namespaces"`
}

// Deployment is one deployment row with derived health.
type Deployment struct {
	Name              string `json:"name"`
	DesiredReplicas   int    `json:"desired_replicas"`
	AvailableReplicas int    `json:"available_replicas"`
	Health            string `json:"health"`
}

// DeploymentList is the response for the list-deployments action.
type DeploymentList struct {
	Namespace   string       `json:"namespace"`
	Count       int          `json:"deployment_count"`
	Deployments []Deployment `json:"deployments"`
}

// ClusterInfo is the response for the cluster-info action.
type ClusterInfo struct {
	KubernetesVersion    string            `json:"kubernetes_version,omitempty"`
	Platform             string            `json:"platform,omitempty"`
	NodeCount            int               `json:"node_count"`
	ControlPlaneEndpoint string            `json:"control_plane_endpoint,omitempty"`
	CoreServices         map[string]string `json:"core_services,omitempty"`
	ClusterStatus        string            `json:"cluster_status"`
}

// VMSummary is one Harvester/KubeVirt VM row.
type VMSummary struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// VMList is the response for the list-vms action.
type VMList struct {
	Namespace string      `json:"namespace"`
	VMs       []VMSummary `json:"vms"`
}

// VMPower is the response for the VM start/stop action.
type VMPower struct {
	VM        string `json:"vm_name"`
	Namespace string `json:"namespace"`
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Message   string `json:"message"`
}

// ContextEntry is one known Rancher context.
type ContextEntry struct {
	Name      string `json:"name"`
	ProjectID string `json:"project_id"`
	Current   bool   `json:"is_current"`
}

// ContextList is the response for the list-contexts action.
type ContextList struct {
	Contexts []ContextEntry `json:"contexts"`
}

// CurrentContext is the response for the get/set-context actions.
type CurrentContext struct {
	Context string `json:"context"`
}

// Kubeconfig is the response for the download-kubeconfig action.
type Kubeconfig struct {
	Cluster string `json:"cluster_name"`
	Path    string `json:"kubeconfig_path"`
}

// CommandResult carries raw command output for the pass-through actions
// (raw kubectl and SSH execution). A non-zero exit code here is an
// application-level outcome, not a transport failure.
type CommandResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
}
