/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package worker implements match-task partitioning and custom-rate
// batching as a net/rpc service, in the style of sr/distributed.go's
// Worker/IOData/Listen pattern. The default in-process path
// (kmclattice.CalculateMatching, kmclattice.UpdateSingleRate) never
// goes through this package; a caller wires it in only when it wants
// to farm batches out to separate processes, and the concatenated
// results must match the in-process path exactly.
package worker

import (
	"log"
	"math"
	"net"
	"net/http"
	"net/rpc"
	"os"

	"github.com/spatialmodel/kmclattice"
)

// Empty is used for passing content-less messages.
type Empty struct{}

// RPCPort specifies the port for RPC communications.
var RPCPort = "6061"

// Point is a serializable stand-in for kmclattice.GeometricPoint: an
// RPC request cannot carry the core's private entry structs, so
// callers flatten a process/configuration match-list entry into its
// geometric fields before filling a TaskInput.
type Point struct {
	MatchType int
	Distance  float64
	Coord     kmclattice.Coordinate
}

func (p Point) wrap() geometricPoint { return geometricPoint{p} }

// geometricPoint adapts a Point to kmclattice.GeometricPoint so a
// worker can call kmclattice.WhateverMatch without access to the
// core's unexported entry types.
type geometricPoint struct{ Point }

func (g geometricPoint) Distance() float64           { return g.Point.Distance }
func (g geometricPoint) Coord() kmclattice.Coordinate { return g.Point.Coord }
func (g geometricPoint) MatchType() int              { return g.Point.MatchType }

// SamePoint and Match duplicate the small geometric-tolerance test
// kmclattice's unexported entryBase applies, since that logic is not
// exported across the package boundary; kmclattice.Epsilon is.
func (g geometricPoint) SamePoint(o kmclattice.GeometricPoint) bool {
	return math.Abs(g.Distance()-o.Distance()) < kmclattice.Epsilon && g.Coord().Equal(o.Coord())
}

func (g geometricPoint) Match(o kmclattice.GeometricPoint) bool {
	if !g.SamePoint(o) {
		return false
	}
	return g.MatchType() == kmclattice.Wildcard || g.MatchType() == o.MatchType()
}

func points(pts []Point) []kmclattice.GeometricPoint {
	out := make([]kmclattice.GeometricPoint, len(pts))
	for i, p := range pts {
		out[i] = p.wrap()
	}
	return out
}

// TaskKind mirrors the four outcomes of kmclattice.CalculateMatching's
// per-site classification: Discard, Remove, Update, Add.
type TaskKind int

const (
	Discard TaskKind = iota
	Remove
	Update
	Add
)

// TaskInput is one worker's unit of match-task partitioning work: the
// process's match list, the site's current configuration match list,
// and whether the process was already listed at that site.
type TaskInput struct {
	ProcessMatchList []Point
	ConfigMatchList  []Point
	WasListed        bool
}

// classify reproduces the classification step of
// kmclattice.CalculateMatching for a single pre-flattened task.
func (t TaskInput) classify() TaskKind {
	nowMatch := kmclattice.WhateverMatch(points(t.ProcessMatchList), points(t.ConfigMatchList))
	switch {
	case t.WasListed && !nowMatch:
		return Remove
	case t.WasListed && nowMatch:
		return Update
	case !t.WasListed && nowMatch:
		return Add
	default:
		return Discard
	}
}

// BatchRequest is the RPC input: a worker's partition of the pair
// list produced by kmclattice.IndexProcessToMatch, in the caller's
// chosen deterministic order.
type BatchRequest struct {
	Tasks []TaskInput
}

// BatchResponse is the RPC output: one TaskKind per input task, in the
// same order, so the caller can concatenate partitions back into
// deterministic pair order.
type BatchResponse struct {
	Kinds []TaskKind
}

// Result allows a local worker to look like a distributed request.
func (r *BatchResponse) Result() (interface{}, error) { return r, nil }

// Worker performs match-task classification batches. It should not be
// interacted with directly; it is exported to meet RPC requirements.
type Worker struct{}

// NewWorker constructs a Worker ready to Listen.
func NewWorker() *Worker { return &Worker{} }

// ClassifyBatch classifies every task in the request and meets the
// requirements for use with rpc.Call.
func (w *Worker) ClassifyBatch(req *BatchRequest, resp *BatchResponse) error {
	resp.Kinds = make([]TaskKind, len(req.Tasks))
	for i, t := range req.Tasks {
		resp.Kinds[i] = t.classify()
	}
	return nil
}

// RateTaskInput is one unit of custom-rate batching work: the
// geometry and pre/post types kmclattice.UpdateSingleRate would
// otherwise gather in-process, plus the process metadata the rate
// callback needs.
type RateTaskInput struct {
	Geometry      []kmclattice.Coordinate
	TypesBefore   []int
	TypesAfter    []int
	BaseRate      float64
	ProcessNumber int
	GlobalCoord   kmclattice.Coordinate
}

// RateBatchRequest carries a worker's partition of rate-hook calls.
// The calculator itself is not part of the request (it cannot cross
// the RPC boundary): it is RateWorker.Calculator, assigned before the
// RateWorker is registered.
type RateBatchRequest struct {
	Tasks []RateTaskInput
}

// RateBatchResponse returns one rate per input task, in the same
// order, so results can be assembled by task index rather than by
// arrival order.
type RateBatchResponse struct {
	Rates []float64
}

// RateWorker performs custom-rate batching against an injected
// RateCalculator. Kept distinct from Worker since the two seams are
// independently optional.
type RateWorker struct {
	Calculator kmclattice.RateCalculator
}

// NewRateWorker constructs a RateWorker delegating to calc.
func NewRateWorker(calc kmclattice.RateCalculator) *RateWorker {
	return &RateWorker{Calculator: calc}
}

// ClassifyBatch computes a rate for every task in the request.
func (w *RateWorker) ClassifyBatch(req *RateBatchRequest, resp *RateBatchResponse) error {
	resp.Rates = make([]float64, len(req.Tasks))
	for i, t := range req.Tasks {
		resp.Rates[i] = w.Calculator.Rate(t.Geometry, t.TypesBefore, t.TypesAfter, t.BaseRate, t.ProcessNumber, t.GlobalCoord)
	}
	return nil
}

// Exit shuts down the worker process. It meets the requirements for
// use with rpc.Call.
func (w *Worker) Exit(in, out *Empty) error {
	os.Exit(0)
	return nil
}

// Listen directs w to start listening for requests over port.
func (w *Worker) Listen(port string) error {
	rpc.Register(w)
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	log.Println("kmclattice worker listening")
	return http.Serve(l, nil)
}

// Listen directs w to start listening for requests over port.
func (w *RateWorker) Listen(port string) error {
	rpc.Register(w)
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	log.Println("kmclattice rate worker listening")
	return http.Serve(l, nil)
}
