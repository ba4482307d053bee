package kube

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/retry"
)

// DataMount is where the claim holding inputs and tiles is mounted.
const DataMount = "/data"

func int32Ptr(i int32) *int32 { return &i }

// SliceJob describes one in-cluster run of the tiler over a folder.
type SliceJob struct {
	Name      string
	Namespace string
	Image     string
	PVC       string
	// InputDir and OutputDir are relative to the claim root.
	InputDir  string
	OutputDir string
	SliceSize int
}

var invalidName = regexp.MustCompile(`[^a-z0-9-]`)

// JobName derives a DNS-1123 Job name from a folder name and a timestamp.
func JobName(dir string, now time.Time) string {
	base := strings.ToLower(path.Base(strings.TrimRight(dir, "/")))
	sanitized := strings.Trim(invalidName.ReplaceAllString(base, "-"), "-")
	if sanitized == "" {
		sanitized = "root"
	}
	name := fmt.Sprintf("tiff-slice-%s-%d", sanitized, now.UnixNano())
	if len(name) > 63 {
		name = strings.TrimRight(name[:63], "-")
	}
	return name
}

// BuildJob renders the Job. It runs a single pod, so the batch stays sequential.
func BuildJob(j SliceJob) *batchv1.Job {
	labels := map[string]string{"app": "tiff-tiler"}
	return &batchv1.Job{
		ObjectMeta: meta.ObjectMeta{
			Name:      j.Name,
			Namespace: j.Namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: int32Ptr(1),
			Parallelism:  int32Ptr(1),
			Completions:  int32Ptr(1),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: meta.ObjectMeta{
					Labels: map[string]string{"job-name": j.Name, "app": "tiff-tiler"},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{{
						Name:  "tiler",
						Image: j.Image,
						Args: []string{
							path.Join(DataMount, j.InputDir),
							path.Join(DataMount, j.OutputDir),
							strconv.Itoa(j.SliceSize),
							"--quiet",
						},
						VolumeMounts: []corev1.VolumeMount{{
							Name:      "data",
							MountPath: DataMount,
						}},
					}},
					Volumes: []corev1.Volume{{
						Name: "data",
						VolumeSource: corev1.VolumeSource{
							PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
								ClaimName: j.PVC,
							},
						},
					}},
				},
			},
		},
	}
}

// NewClientset loads kubeconfig from the given path.
func NewClientset(kubeconfig string) (*kubernetes.Clientset, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}
	return clientset, nil
}

// Submit creates the Job, retrying on conflict.
func Submit(ctx context.Context, client kubernetes.Interface, job *batchv1.Job) (*batchv1.Job, error) {
	var created *batchv1.Job
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var err error
		created, err = client.BatchV1().Jobs(job.Namespace).Create(ctx, job, meta.CreateOptions{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating job %s: %w", job.Name, err)
	}
	return created, nil
}
