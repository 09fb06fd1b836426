package campaigns

// PointInPolygon reports whether p lies inside the ring using the even-odd
// ray-casting rule, treating (lat, lng) as planar (x, y). The ring is
// implicitly closed. Rings with fewer than 3 vertices never contain
// anything. Points exactly on an edge are implementation-defined; callers
// must not rely on either outcome for boundary points.
func PointInPolygon(p LatLng, ring Polygon) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi.Lng > p.Lng) != (vj.Lng > p.Lng) &&
			p.Lat < (vj.Lat-vi.Lat)*(p.Lng-vi.Lng)/(vj.Lng-vi.Lng)+vi.Lat {
			inside = !inside
		}
	}
	return inside
}
