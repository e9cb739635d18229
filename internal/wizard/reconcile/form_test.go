package reconcile

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelateFailureFormJoinsOnSuffix(t *testing.T) {
	form := url.Values{
		"wholeSentence-3":                  {"yes"},
		"failureReasonWholeTermContact_3":  {"FTC"},
		"wholeSentence-7":                  {"no"},
		"failureReasonWholeTermContact_7":  {"FTA"},
		"wholeSentence-12":                 {"no"},
		"unrelatedField":                   {"ignored"},
		"failureReasonWholeTermContact_99": {"FTC"}, // reason without a flag field
	}

	selections, errs := CorrelateFailureForm(form)
	require.False(t, errs.Has(), "unexpected errors: %v", errs)
	require.Len(t, selections, 3)

	assert.Equal(t, int64(3), selections[0].ContactID)
	assert.True(t, selections[0].WholeSentence)
	assert.Equal(t, "FTC", selections[0].Reason)

	assert.Equal(t, int64(7), selections[1].ContactID)
	assert.False(t, selections[1].WholeSentence)
	assert.Equal(t, "FTA", selections[1].Reason)

	assert.Equal(t, int64(12), selections[2].ContactID)
	assert.Empty(t, selections[2].Reason)
}

func TestCorrelateFailureFormSentinelReasonIsError(t *testing.T) {
	form := url.Values{
		"wholeSentence-5":                 {"yes"},
		"failureReasonWholeTermContact_5": {PleaseSelect},
	}

	_, errs := CorrelateFailureForm(form)
	require.True(t, errs.Has())
	assert.Equal(t, "select a valid failure reason", errs.For("wholeSentence-5"))
}

func TestCorrelateFailureFormMissingReasonIsError(t *testing.T) {
	form := url.Values{
		"wholeSentence-5": {"yes"},
	}

	_, errs := CorrelateFailureForm(form)
	require.True(t, errs.Has())
	assert.Equal(t, "select a valid failure reason", errs.For("wholeSentence-5"))
}

func TestCorrelateFailureFormInvalidSuffix(t *testing.T) {
	form := url.Values{
		"wholeSentence-abc": {"yes"},
	}

	_, errs := CorrelateFailureForm(form)
	require.True(t, errs.Has())
	assert.Equal(t, "has an invalid contact id", errs.For("wholeSentence-abc"))
}
