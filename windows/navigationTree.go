// Copyright 2025 Magnus Pierre
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

package windows

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	delta_sharing "github.com/magpierre/go_delta_sharing_client"

	"sociogrid/remote"
)

// TreeNodeType represents the type of node in the navigation tree
type TreeNodeType string

const (
	NodeTypeShare  TreeNodeType = "share"
	NodeTypeSchema TreeNodeType = "schema"
	NodeTypeTable  TreeNodeType = "table"
)

// TreeNode represents a node in the navigation tree
type TreeNode struct {
	ID       string
	NodeType TreeNodeType
	Name     string
	Share    string
	Schema   string
	Table    delta_sharing.Table // table nodes only
	Children []string
}

// NavigationTree is the share / schema / table catalog of one profile.
type NavigationTree struct {
	mu      sync.RWMutex
	nodes   map[string]*TreeNode
	rootIDs []string
	profile string
	timeout time.Duration
}

// NewNavigationTree creates an empty tree. timeout bounds catalog calls.
func NewNavigationTree(timeout time.Duration) *NavigationTree {
	return &NavigationTree{nodes: make(map[string]*TreeNode), timeout: timeout}
}

// GenerateNodeID creates a unique ID for a tree node
func GenerateNodeID(nodeType TreeNodeType, share, schema, table string) string {
	switch nodeType {
	case NodeTypeShare:
		return fmt.Sprintf("share:%s", share)
	case NodeTypeSchema:
		return fmt.Sprintf("share:%s:schema:%s", share, schema)
	case NodeTypeTable:
		return fmt.Sprintf("share:%s:schema:%s:table:%s", share, schema, table)
	default:
		return ""
	}
}

// ParseNodeID extracts components from a node ID
func ParseNodeID(nodeID string) (nodeType TreeNodeType, share, schema, table string) {
	parts := strings.Split(nodeID, ":")
	if len(parts) >= 2 && parts[0] == "share" {
		nodeType, share = NodeTypeShare, parts[1]
	}
	if len(parts) >= 4 && parts[2] == "schema" {
		nodeType, schema = NodeTypeSchema, parts[3]
	}
	if len(parts) >= 6 && parts[4] == "table" {
		nodeType, table = NodeTypeTable, parts[5]
	}
	return
}

// Profile returns the profile the tree was loaded with.
func (nt *NavigationTree) Profile() string {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return nt.profile
}

// LoadShares fetches every table the profile can read and rebuilds the tree.
func (nt *NavigationTree) LoadShares(profile string) error {
	ctx, cancel := createTimeoutContext(nt.timeout)
	defer cancel()
	tables, err := remote.ListTables(ctx, profile)
	if err != nil {
		return err
	}
	nt.SetTables(profile, tables)
	return nil
}

// SetTables rebuilds the tree from a table listing. Shares, schemas and
// tables are sorted by name.
func (nt *NavigationTree) SetTables(profile string, tables []delta_sharing.Table) {
	nodes := make(map[string]*TreeNode)
	var roots []string

	for _, table := range tables {
		shareID := GenerateNodeID(NodeTypeShare, table.Share, "", "")
		share, ok := nodes[shareID]
		if !ok {
			share = &TreeNode{ID: shareID, NodeType: NodeTypeShare, Name: table.Share, Share: table.Share}
			nodes[shareID] = share
			roots = append(roots, shareID)
		}

		schemaID := GenerateNodeID(NodeTypeSchema, table.Share, table.Schema, "")
		schema, ok := nodes[schemaID]
		if !ok {
			schema = &TreeNode{ID: schemaID, NodeType: NodeTypeSchema, Name: table.Schema, Share: table.Share, Schema: table.Schema}
			nodes[schemaID] = schema
			share.Children = append(share.Children, schemaID)
		}

		tableID := GenerateNodeID(NodeTypeTable, table.Share, table.Schema, table.Name)
		if _, ok := nodes[tableID]; ok {
			continue
		}
		nodes[tableID] = &TreeNode{
			ID:       tableID,
			NodeType: NodeTypeTable,
			Name:     table.Name,
			Share:    table.Share,
			Schema:   table.Schema,
			Table:    table,
		}
		schema.Children = append(schema.Children, tableID)
	}

	byName := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return nodes[ids[i]].Name < nodes[ids[j]].Name })
	}
	byName(roots)
	for _, n := range nodes {
		byName(n.Children)
	}

	nt.mu.Lock()
	nt.profile, nt.nodes, nt.rootIDs = profile, nodes, roots
	nt.mu.Unlock()
}

// GetChildren returns the child node IDs for a given parent node
// Returns root nodes if nodeID is empty
func (nt *NavigationTree) GetChildren(nodeID widget.TreeNodeID) []widget.TreeNodeID {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	if nodeID == "" {
		return nt.rootIDs
	}
	if node, ok := nt.nodes[nodeID]; ok {
		return node.Children
	}
	return nil
}

// IsBranch returns true if the node can have children
func (nt *NavigationTree) IsBranch(nodeID widget.TreeNodeID) bool {
	if nodeID == "" {
		return true
	}
	node := nt.GetNode(nodeID)
	return node != nil && node.NodeType != NodeTypeTable
}

// GetNode retrieves a node by ID
func (nt *NavigationTree) GetNode(nodeID widget.TreeNodeID) *TreeNode {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return nt.nodes[nodeID]
}

// NewTreeWidget shows the catalog. onTable runs when a table is selected.
func (nt *NavigationTree) NewTreeWidget(onTable func(*TreeNode)) *widget.Tree {
	tree := widget.NewTree(
		nt.GetChildren,
		nt.IsBranch,
		func(bool) fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.FolderIcon()), widget.NewLabel("template"))
		},
		nt.UpdateNodeDisplay,
	)
	tree.OnSelected = func(id widget.TreeNodeID) {
		if node := nt.GetNode(id); node != nil && node.NodeType == NodeTypeTable && onTable != nil {
			onTable(node)
		}
	}
	return tree
}

// UpdateNodeDisplay updates the visual representation of a tree node
func (nt *NavigationTree) UpdateNodeDisplay(nodeID widget.TreeNodeID, branch bool, obj fyne.CanvasObject) {
	node := nt.GetNode(nodeID)
	box, ok := obj.(*fyne.Container)
	if node == nil || !ok || len(box.Objects) < 2 {
		return
	}
	if icon, ok := box.Objects[0].(*widget.Icon); ok {
		switch node.NodeType {
		case NodeTypeShare:
			icon.SetResource(theme.FolderOpenIcon())
		case NodeTypeSchema:
			icon.SetResource(theme.FolderIcon())
		case NodeTypeTable:
			icon.SetResource(theme.GridIcon())
		}
	}
	if label, ok := box.Objects[1].(*widget.Label); ok {
		label.SetText(node.Name)
	}
}
