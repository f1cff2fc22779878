package gnod

import (
	"context"
	"errors"
	"testing"

	"github.com/clessn/scrapessn/lib/closeness"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtractMatrix(t *testing.T) {
	doc := loadFixture(t)

	matrix, err := ExtractMatrix(context.Background(), doc, 3)
	require.Nil(t, err)

	want := [][]closeness.Score{
		{closeness.Known(100), closeness.Known(61), closeness.Known(42)},
		{closeness.Known(61), closeness.Known(100), {}},
		{closeness.Known(42), {}, closeness.Known(100)},
	}
	diff := cmp.Diff(want, matrix)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractMatrixWhitespaceTolerant(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>var W=794;</script>
<script>
Aid[0] = new Array( 100 , 7 );
Aid[1] = new Array( 7 , 100 );
</script>
</body></html>`)

	matrix, err := ExtractMatrix(context.Background(), doc, 2)
	require.Nil(t, err)
	require.Equal(t, closeness.Known(7), matrix[0][1])
}

func TestExtractMatrixTooFewScripts(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>Aid[0]=new Array(100);</script>
</body></html>`)

	_, err := ExtractMatrix(context.Background(), doc, 1)
	require.True(t, errors.Is(err, ErrStructuralMismatch), "got: %v", err)
}

func TestExtractMatrixNoAssignments(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>var W=794;</script>
<script>redirectToLogin();</script>
</body></html>`)

	_, err := ExtractMatrix(context.Background(), doc, 3)
	require.True(t, errors.Is(err, ErrStructuralMismatch), "got: %v", err)
}

func TestExtractMatrixShortArray(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>var W=794;</script>
<script>
Aid[0]=new Array(100,61,42);
Aid[1]=new Array(61,100);
Aid[2]=new Array(42,-1,100);
</script>
</body></html>`)

	matrix, err := ExtractMatrix(context.Background(), doc, 3)
	require.True(t, errors.Is(err, ErrParse), "got: %v", err)
	require.Nil(t, matrix)
}

func TestExtractMatrixMissingPosition(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>var W=794;</script>
<script>
Aid[0]=new Array(100,61,42);
Aid[2]=new Array(42,-1,100);
</script>
</body></html>`)

	_, err := ExtractMatrix(context.Background(), doc, 3)
	require.True(t, errors.Is(err, ErrParse), "got: %v", err)
}

func TestExtractMatrixBadValue(t *testing.T) {
	doc := docFromString(t, `<html><head><script src="gnod.js"></script></head><body>
<script>var W=794;</script>
<script>
Aid[0]=new Array(100,oops);
Aid[1]=new Array(61,100);
</script>
</body></html>`)

	_, err := ExtractMatrix(context.Background(), doc, 2)
	require.True(t, errors.Is(err, ErrParse), "got: %v", err)
}
