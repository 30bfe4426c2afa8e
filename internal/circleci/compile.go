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

	"gopkg.in/yaml.v3"

	"github.com/kay/gradle-apt-plugin/pkg/crossversion"
	yn "github.com/kay/gradle-apt-plugin/pkg/yamlnode"
)

// Anchors shared by every generated document.
const (
	defaultsAnchor         = "defaults"
	persistWorkspaceAnchor = "persist-workspace"
	attachWorkspaceAnchor  = "attach-workspace"
	storeTestResultsAnchor = "store-test-results"
)

func platformAnchor(jdk crossversion.JDK) string {
	return fmt.Sprintf("java%d", jdk)
}

func saveDependenciesAnchor(jdk crossversion.JDK) string {
	return fmt.Sprintf("save-gradle-dependencies-java%d", jdk)
}

func restoreDependenciesAnchor(jdk crossversion.JDK) string {
	return fmt.Sprintf("restore-gradle-dependencies-java%d", jdk)
}

func saveWrapperAnchor(gradle string) string {
	return "save-gradle-wrapper-" + crossversion.VersionSlug(gradle)
}

func restoreWrapperAnchor(gradle string) string {
	return "restore-gradle-wrapper-" + crossversion.VersionSlug(gradle)
}

// compiler turns a validated Request into a node tree.
type compiler struct {
	req      Request
	resolved *resolved
	anchors  *yn.Anchors
}

// Compile validates req and builds the pipeline configuration as a YAML node
// tree. The returned node is the root mapping, without document header.
func Compile(req Request) (*yaml.Node, error) {
	res, errs := req.resolve()
	if len(errs) > 0 {
		return nil, &ConfigError{Errors: errs}
	}

	c := &compiler{req: req, resolved: res, anchors: yn.NewAnchors()}

	// Anchors must be defined before they are referenced.
	platforms := c.platforms()
	caches, err := c.caches()
	if err != nil {
		return nil, err
	}
	jobs := c.jobs()
	workflows := c.workflows()

	if err := c.anchors.Err(); err != nil {
		return nil, fmt.Errorf("compiling pipeline: %w", err)
	}

	return yn.Map(
		yn.F("platforms", platforms),
		yn.F("caches", caches),
		yn.F("version", yn.Int(2)),
		yn.F("jobs", jobs),
		yn.F("workflows", workflows),
	), nil
}

func (c *compiler) platforms() *yaml.Node {
	env := make([]*yaml.Node, len(c.resolved.environment))
	for i, ev := range c.resolved.environment {
		env[i] = yn.Map(yn.F(ev.Name, yn.Str(ev.Value)))
	}

	items := []*yaml.Node{
		c.anchors.Define(defaultsAnchor, yn.Map(yn.F("environment", yn.Seq(env...)))),
	}
	for _, jdk := range c.req.JDKs {
		items = append(items, c.anchors.Define(platformAnchor(jdk), yn.Map(
			c.anchors.Merge(defaultsAnchor),
			yn.F("docker", yn.Seq(yn.Map(yn.F("image", yn.Str(c.resolved.images[jdk]))))),
		)))
	}

	return yn.Seq(items...)
}

func (c *compiler) caches() (*yaml.Node, error) {
	workspace := yn.Seq(
		c.anchors.Define(persistWorkspaceAnchor, yn.Map(yn.F("persist_to_workspace", yn.Map(
			yn.F("root", yn.Str(".")),
			yn.F("paths", yn.Str(".")),
		)))),
		c.anchors.Define(attachWorkspaceAnchor, yn.Map(yn.F("attach_workspace", yn.Map(
			yn.F("at", yn.Str(".")),
		)))),
	)

	testResults := yn.Seq(
		c.anchors.Define(storeTestResultsAnchor, yn.Map(yn.F("store_test_results", yn.Map(
			yn.F("paths", yn.Str("build/test-results/")),
		)))),
	)

	dependencies := yn.Seq()
	for _, jdk := range c.req.JDKs {
		key := fmt.Sprintf(`v2-gradle-java%d-{{ checksum "%s" }}`, jdk, c.resolved.buildFile)
		dependencies.Content = append(dependencies.Content,
			c.anchors.Define(saveDependenciesAnchor(jdk), yn.Map(yn.F("save_cache", yn.Map(
				yn.F("name", yn.Str("Saving Gradle dependencies")),
				yn.F("key", yn.Str(key)),
				yn.F("paths", yn.Strs("~/.gradle/caches/modules-*/")),
			)))),
			c.anchors.Define(restoreDependenciesAnchor(jdk), yn.Map(yn.F("restore_cache", yn.Map(
				yn.F("name", yn.Str("Restoring Gradle dependencies")),
				yn.F("keys", yn.Strs(key)),
			)))),
		)
	}

	wrapper := yn.Seq()
	for _, gradle := range c.req.CrossVersions.GradleVersions(c.req.CurrentGradle) {
		feature, err := crossversion.FeatureRelease(gradle)
		if err != nil {
			return nil, err
		}
		key := "v1-gradle-wrapper-" + gradle
		wrapper.Content = append(wrapper.Content,
			c.anchors.Define(saveWrapperAnchor(gradle), yn.Map(yn.F("save_cache", yn.Map(
				yn.F("name", yn.Str("Saving Gradle wrapper "+gradle)),
				yn.F("key", yn.Str(key)),
				yn.F("paths", yn.Strs(fmt.Sprintf("~/.gradle/wrapper/dists/gradle-%s-bin/", gradle))),
			)))),
			c.anchors.Define(restoreWrapperAnchor(gradle), yn.Map(yn.F("restore_cache", yn.Map(
				yn.F("name", yn.Str("Restoring Gradle wrapper "+gradle)),
				yn.F("keys", yn.Strs(key, "v1-gradle-wrapper-"+feature, "v1-gradle-wrapper-current")),
			)))),
		)
	}

	return yn.Map(
		yn.F("workspace", workspace),
		yn.F("test_results", testResults),
		yn.F("dependencies", dependencies),
		yn.F("wrapper", wrapper),
	), nil
}

func run(name, command string) *yaml.Node {
	return yn.Map(yn.F("run", yn.Map(
		yn.F("name", yn.Str(name)),
		yn.F("command", yn.Str(command)),
	)))
}

func (c *compiler) jobs() *yaml.Node {
	a := c.anchors
	current := c.req.CurrentGradle
	jobs := yn.Map()

	for _, job := range NewPlan(c.req).Jobs {
		var steps *yaml.Node
		switch job.Kind {
		case KindCheckout:
			steps = yn.Seq(
				yn.Str("checkout"),
				run("Remove Git tracking files (reduces workspace size)", "rm -rf .git/"),
				a.Ref(persistWorkspaceAnchor),
			)
		case KindBuild:
			steps = yn.Seq(
				a.Ref(attachWorkspaceAnchor),
				a.Ref(restoreDependenciesAnchor(job.JDK)),
				a.Ref(restoreWrapperAnchor(current)),
				run("Build", "./gradlew build"),
				a.Ref(storeTestResultsAnchor),
				a.Ref(saveWrapperAnchor(current)),
				a.Ref(saveDependenciesAnchor(job.JDK)),
				a.Ref(persistWorkspaceAnchor),
			)
		case KindCrossVersion:
			steps = yn.Seq(
				a.Ref(attachWorkspaceAnchor),
				a.Ref(restoreDependenciesAnchor(job.JDK)),
				a.Ref(restoreWrapperAnchor(current)),
				a.Ref(restoreWrapperAnchor(job.Gradle)),
				run("Test against Gradle "+job.Gradle, "./gradlew test -Ptest.gradle-version="+job.Gradle),
				a.Ref(storeTestResultsAnchor),
				a.Ref(saveWrapperAnchor(job.Gradle)),
			)
		}

		yn.Append(jobs, yn.F(job.Name, yn.Map(
			a.Merge(platformAnchor(job.JDK)),
			yn.F("steps", steps),
		)))
	}

	return jobs
}

func (c *compiler) workflows() *yaml.Node {
	items := yn.Seq()
	for _, job := range NewPlan(c.req).Jobs {
		if len(job.Requires) == 0 {
			items.Content = append(items.Content, yn.Str(job.Name))
			continue
		}
		items.Content = append(items.Content, yn.Map(yn.F(job.Name, yn.Map(
			yn.F("requires", yn.Strs(job.Requires...)),
		))))
	}

	return yn.Map(
		yn.F("version", yn.Int(2)),
		yn.F("tests", yn.Map(yn.F("jobs", items))),
	)
}
