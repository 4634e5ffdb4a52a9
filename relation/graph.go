package relation

import (
	"fmt"
	"strings"
)

// BuildGraph aggregates extracted relationships into a document graph.
// Every source and target is inserted into the document table keyed by
// DocumentKey; on key collision the later insertion wins wholesale (no
// field merging). Thematic and chronological clusters are then derived.
// The input slice is never mutated; all iteration is ordered so repeated
// builds over the same input are identical.
func BuildGraph(relationships []Relationship) *Graph {
	documents := make(map[string]DocumentRef, len(relationships)*2)
	var keyOrder []string

	insert := func(ref DocumentRef) {
		key := DocumentKey(ref)
		if _, seen := documents[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		documents[key] = ref
	}

	for _, rel := range relationships {
		insert(rel.Source)
		insert(rel.Target)
	}

	clusters := thematicClusters(relationships)
	clusters = append(clusters, chronologicalClusters(keyOrder, documents)...)

	rels := make([]Relationship, len(relationships))
	copy(rels, relationships)

	return &Graph{
		Documents:     documents,
		Relationships: rels,
		Clusters:      clusters,
	}
}

// thematicClusters walks relationships in order and, for each one whose
// documents are still unclaimed, collects the one-hop neighborhood of the
// source document. Neighborhoods with more than 2 members become a cluster
// and claim all their documents; smaller ones claim nothing.
func thematicClusters(relationships []Relationship) []Cluster {
	var clusters []Cluster
	claimed := make(map[string]bool)

	for _, rel := range relationships {
		sourceKey := DocumentKey(rel.Source)
		targetKey := DocumentKey(rel.Target)
		if claimed[sourceKey] || claimed[targetKey] {
			continue
		}

		related := relatedDocuments(rel.Source, relationships)
		if len(related) <= 2 {
			continue
		}

		clusters = append(clusters, Cluster{
			ID:        fmt.Sprintf("thematic_%d", len(clusters)+1),
			Documents: related,
			Type:      ClusterThematic,
			Description: fmt.Sprintf("Cluster thématique autour de %s %s",
				rel.Source.Type, rel.Source.Number),
		})
		for _, key := range related {
			claimed[key] = true
		}
	}

	return clusters
}

// relatedDocuments returns the one-hop neighborhood of a document: itself
// plus every document directly connected to it by any relationship. Not a
// transitive closure.
func relatedDocuments(doc DocumentRef, relationships []Relationship) []string {
	docKey := DocumentKey(doc)
	seen := map[string]bool{docKey: true}
	related := []string{docKey}

	for _, rel := range relationships {
		sourceKey := DocumentKey(rel.Source)
		targetKey := DocumentKey(rel.Target)

		if sourceKey == docKey {
			if !seen[targetKey] {
				seen[targetKey] = true
				related = append(related, targetKey)
			}
		} else if targetKey == docKey {
			if !seen[sourceKey] {
				seen[sourceKey] = true
				related = append(related, sourceKey)
			}
		}
	}

	return related
}

// chronologicalClusters groups documents by the trailing year token of
// their Gregorian date; year groups with more than 3 documents become a
// cluster. Documents without a Gregorian date are excluded entirely.
func chronologicalClusters(keyOrder []string, documents map[string]DocumentRef) []Cluster {
	groups := make(map[string][]string)
	var years []string

	for _, key := range keyOrder {
		doc := documents[key]
		if doc.Date == nil || doc.Date.Gregorian == "" {
			continue
		}
		fields := strings.Fields(doc.Date.Gregorian)
		year := "unknown"
		if len(fields) > 0 {
			year = fields[len(fields)-1]
		}
		if _, ok := groups[year]; !ok {
			years = append(years, year)
		}
		groups[year] = append(groups[year], key)
	}

	var clusters []Cluster
	for _, year := range years {
		keys := groups[year]
		if len(keys) <= 3 {
			continue
		}
		clusters = append(clusters, Cluster{
			ID:          "chronological_" + year,
			Documents:   keys,
			Type:        ClusterChronological,
			Description: fmt.Sprintf("Documents de l'année %s", year),
		})
	}

	return clusters
}
