// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package circleci

import (
	"fmt"

	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
)

// CheckoutJob is the name of the job that checks the sources out and
// persists them to the workspace.
const CheckoutJob = "checkout_code"

// JobKind tells what a job does.
type JobKind int

const (
	// KindCheckout checks out the code.
	KindCheckout JobKind = iota
	// KindBuild builds and tests the project on one JDK with the current Gradle.
	KindBuild
	// KindCrossVersion tests the project on one JDK against another Gradle version.
	KindCrossVersion
)

// String implements fmt.Stringer.
func (k JobKind) String() string {
	switch k {
	case KindCheckout:
		return "checkout"
	case KindBuild:
		return "build"
	case KindCrossVersion:
		return "cross-version"
	default:
		return fmt.Sprintf("JobKind(%d)", int(k))
	}
}

// Job is a node of the workflow graph.
type Job struct {
	Name string
	Kind JobKind
	// JDK is the platform the job runs on.
	JDK crossversion.JDK
	// CrossVersion is the name of the cross-version entry, for KindCrossVersion jobs.
	CrossVersion string
	// Gradle is the Gradle version the job runs with.
	Gradle string
	// Requires lists the jobs that must succeed before this one starts.
	Requires []string
}

// Plan is the ordered list of jobs of a pipeline.
type Plan struct {
	Jobs []Job
}

// BuildJobName returns the name of the build job for jdk, e.g. "java8".
func BuildJobName(jdk crossversion.JDK) string {
	return fmt.Sprintf("java%d", jdk)
}

// CrossVersionJobName returns the name of the cross-version job of entry
// name on jdk, e.g. "java8_gradle46".
func CrossVersionJobName(jdk crossversion.JDK, name string) string {
	return fmt.Sprintf("java%d_%s", jdk, name)
}

// NewPlan computes the job graph of req. The checkout job gates the build on
// the first JDK, which gates the builds on the other JDKs. A cross-version job
// waits for the build on its JDK and, unless it runs on the entry's first JDK,
// for the entry's job on that first JDK.
//
// The request is assumed valid, see Request.Validate.
func NewPlan(req Request) Plan {
	if len(req.JDKs) == 0 {
		return Plan{}
	}

	first := req.JDKs.First()
	jobs := make([]Job, 0, 1+len(req.JDKs)+len(req.CrossVersions))

	jobs = append(jobs, Job{
		Name:   CheckoutJob,
		Kind:   KindCheckout,
		JDK:    first,
		Gradle: req.CurrentGradle,
	})

	for i, jdk := range req.JDKs {
		requires := CheckoutJob
		if i > 0 {
			requires = BuildJobName(first)
		}
		jobs = append(jobs, Job{
			Name:     BuildJobName(jdk),
			Kind:     KindBuild,
			JDK:      jdk,
			Gradle:   req.CurrentGradle,
			Requires: []string{requires},
		})
	}

	for _, e := range req.CrossVersions {
		for i, jdk := range e.JDKs {
			requires := []string{BuildJobName(jdk)}
			if i > 0 {
				requires = append(requires, CrossVersionJobName(e.JDKs.First(), e.Name))
			}
			jobs = append(jobs, Job{
				Name:         CrossVersionJobName(jdk, e.Name),
				Kind:         KindCrossVersion,
				JDK:          jdk,
				CrossVersion: e.Name,
				Gradle:       e.Gradle,
				Requires:     requires,
			})
		}
	}

	return Plan{Jobs: jobs}
}

// Job returns the job called name.
func (p Plan) Job(name string) (Job, bool) {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Count returns the number of jobs of kind k.
func (p Plan) Count(k JobKind) int {
	n := 0
	for _, j := range p.Jobs {
		if j.Kind == k {
			n++
		}
	}
	return n
}
