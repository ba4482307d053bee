package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/config"
	"github.com/PhantomInTheWire/tiff-tiler/pkg/kube"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file with TILER_* settings")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-env-file .env] <input_folder> <output_folder> <slice_size>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Folders are relative to the root of the data volume claim.")
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	inDir, outDir := flag.Arg(0), flag.Arg(1)
	size, err := strconv.Atoi(flag.Arg(2))
	if err != nil || size <= 0 {
		log.Fatalf("slice_size must be a positive integer, got %q", flag.Arg(2))
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	clientset, err := kube.NewClientset(cfg.Kube.Kubeconfig)
	if err != nil {
		log.Fatalf("%v", err)
	}

	job := kube.BuildJob(kube.SliceJob{
		Name:      kube.JobName(inDir, time.Now()),
		Namespace: cfg.Kube.Namespace,
		Image:     cfg.Kube.Image,
		PVC:       cfg.Kube.PVC,
		InputDir:  inDir,
		OutputDir: outDir,
		SliceSize: size,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	created, err := kube.Submit(ctx, clientset, job)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Job created: %s/%s", created.Namespace, created.Name)
}
