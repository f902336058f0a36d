package thermal

// FilterOccupants returns the clusters considered plausible occupants: those
// whose pixel count lies within [MinClusterSize, MaxClusterSize]. Clusters
// outside the bounds are noise pixels or merged blobs and are dropped, never
// split or merged.
//
// One qualifying cluster counts as one person. This is a deliberate
// simplification: two adjacent people can merge into a single oversized
// cluster and be undercounted or rejected outright. Do not "fix" this by
// splitting oversized clusters; the tradeoff is part of the counting
// semantics.
func FilterOccupants(clusters []Cluster, p AnalysisParams) []Cluster {
	occupants := make([]Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c.Size >= p.MinClusterSize && c.Size <= p.MaxClusterSize {
			occupants = append(occupants, c)
		}
	}
	return occupants
}
