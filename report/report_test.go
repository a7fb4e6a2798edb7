package report

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resilience-distances/network"
	"resilience-distances/places"
	"resilience-distances/roads"
	"testing"
)

func nearest(t *testing.T) *network.NearestResult {
	net, _, err := network.FromTables(
		[]roads.Node{{Identifier: "A", X: 0, Y: 0}, {Identifier: "B", X: 1, Y: 0}, {Identifier: "C", X: 3, Y: 0}},
		[]roads.Link{{StartNode: "A", EndNode: "B", Length: 1}, {StartNode: "B", EndNode: "C", Length: 2}},
	)
	require.NoError(t, err)
	require.NoError(t, net.SetPOIs("points", 10, 2, []string{"p1", "p2"}, []float64{0, 3}, []float64{0, 0}))
	res, err := net.NearestPOIs(context.Background(), 10, "points", 2)
	require.NoError(t, err)
	return res
}

var areas = []places.AreaCentroid{
	{Code: "E01", X: 0.9, Y: 0.1},
	{Code: "E02", X: 3, Y: 0.5},
	{Code: "E03", X: 50, Y: 50},
}

func TestJoinAndWrite(t *testing.T) {
	rows, err := Join(areas, []string{"B", "C", ""}, nearest(t))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{1, 2}, rows[0].Distances)
	assert.Equal(t, 1.5, rows[0].Mean)
	assert.False(t, rows[2].Mapped())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, 2, "", rows))
	assert.Equal(t, "identifier,1,2,poi1,poi2,lsoa11cd,X,Y,lsoa_nodes,mean_distance_nearest_three_points\n"+
		"B,1,2,p1,p2,E01,0.9,0.1,B,1.5\n"+
		"C,0,3,p2,p1,E02,3,0.5,C,1.5\n"+
		",,,,,E03,50,50,,\n", buf.String())
}

func TestJoinSharedNodeKeepsOneRowPerArea(t *testing.T) {
	rows, err := Join(areas[:2], []string{"B", "B"}, nearest(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "E01", rows[0].Area.Code)
	assert.Equal(t, "E02", rows[1].Area.Code)
	assert.Equal(t, rows[0].Distances, rows[1].Distances)
}

func TestJoinErrors(t *testing.T) {
	res := nearest(t)
	_, err := Join(areas, []string{"B"}, res)
	assert.Error(t, err)
	_, err = Join(areas[:1], []string{"Z"}, res)
	assert.Error(t, err)
}

func TestWriteCSVMeanColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, 1, "mean_distance_nearest_three_foodbanks", nil))
	assert.Equal(t, "identifier,1,poi1,lsoa11cd,X,Y,lsoa_nodes,mean_distance_nearest_three_foodbanks\n", buf.String())
}
