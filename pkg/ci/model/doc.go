// Package model defines the declarative CI pipeline definition and the job instances it expands to.
//
// Config mirrors the file as written: axes and phases may be scalars or lists, jobs.include entries only set
// what they override. Job is the resolved form produced by the matrix package, with every axis and phase filled in.
package model
