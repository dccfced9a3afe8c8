// Package batch runs the microrheology pipeline over experiment layouts
// described by a YAML file: several conditions with numbered replicate
// exports, or one export holding a time course of measurements.
//
// Physical parameters may be given once for all conditions or per
// condition:
//
//	export: exported2.csv
//	root: data/conditions
//	conditions:
//	  - {name: condition1, dir: cond1, replicates: [1, 2, 3]}
//	  - {name: condition2, dir: cond2, replicates: [1]}
//	temperature: {condition1: 310.15, condition2: 298.15}
//	radius: 250
//	ergodic: {condition1: true, condition2: false}
//	laplace: true
//	output:
//	  parquet: results.parquet
//
// # Usage
//
//	cfg, err := batch.LoadConfig("run.yaml")
//	if err != nil {
//		return err
//	}
//	jobs, err := cfg.Jobs()
//	if err != nil {
//		return err
//	}
//	report, err := batch.NewRunner(batch.WithWorkers(4)).Run(ctx, jobs)
package batch
