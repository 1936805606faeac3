package marketo

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, opName, body string) (*Result, error) {
	t.Helper()
	return NewResponseDecoder().Decode(lookup(t, opName), jsonResponse(http.StatusOK, body))
}

func TestDecodeDefaultRule(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		res, err := decode(t, OpGetLead, `{"requestId":"a1","success":true,"result":[{"id":123,"email":"a@example.com"}]}`)
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, "a1", res.RequestID)
		assert.Nil(t, res.Err())
		assert.NoError(t, res.AsError())

		records, err := res.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, float64(123), records[0]["id"])
	})

	t.Run("empty result is still success", func(t *testing.T) {
		res, err := decode(t, OpGetLead, `{"requestId":"a2","success":true,"result":[]}`)
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.False(t, res.HasResult())
	})

	t.Run("vendor errors", func(t *testing.T) {
		res, err := decode(t, OpGetLead, `{"requestId":"a3","success":false,"errors":[{"code":"1003","message":"Invalid id"}]}`)
		require.NoError(t, err)
		assert.False(t, res.IsSuccess())
		require.NotNil(t, res.Err())
		assert.Equal(t, Error{Code: "1003", Message: "Invalid id"}, *res.Err())

		var apiErr *APIError
		require.ErrorAs(t, res.AsError(), &apiErr)
		assert.True(t, apiErr.HasCode("1003"))
		assert.Equal(t, "a3", apiErr.RequestID)
	})

	t.Run("failure without errors", func(t *testing.T) {
		res, err := decode(t, OpGetLead, `{"requestId":"a4","success":false}`)
		require.NoError(t, err)
		assert.False(t, res.IsSuccess())
		require.Len(t, res.Errors(), 1)
		assert.Equal(t, "request was not successful", res.Errors()[0].Message)
	})

	t.Run("numeric code", func(t *testing.T) {
		res, err := decode(t, OpGetLead, `{"success":false,"errors":[{"code":1004,"message":"Lead not found"}]}`)
		require.NoError(t, err)
		assert.Equal(t, "1004", res.Err().Code)
	})
}

func TestDecodeCustomObjectsRule(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		success bool
		first   Error
	}{
		{
			name:    "empty result",
			body:    `{"requestId":"c1","success":true,"result":[]}`,
			success: false,
			first:   Error{Code: "", Message: "Custom Objects not found"},
		},
		{
			name:    "missing result",
			body:    `{"requestId":"c2","success":true}`,
			success: false,
			first:   Error{Code: "", Message: "Custom Objects not found"},
		},
		{
			name:    "vendor error",
			body:    `{"requestId":"c3","success":false,"errors":[{"code":"601","message":"Access token invalid"}]}`,
			success: false,
			first:   Error{Code: "601", Message: "Access token invalid"},
		},
		{
			name:    "records",
			body:    `{"requestId":"c4","success":true,"result":[{"seq":0,"marketoGUID":"g1","vin":"V1"}]}`,
			success: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decode(t, OpGetCustomObjects, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.IsSuccess())
			if tt.success {
				assert.Nil(t, res.Err())
				objects := res.CustomObjects()
				require.Len(t, objects, 1)
				assert.Equal(t, "g1", objects[0]["marketoGUID"])
				return
			}
			require.NotNil(t, res.Err())
			assert.Equal(t, tt.first, *res.Err())
			assert.Nil(t, res.CustomObjects())
			assert.True(t, res.EnvelopeSuccess() == (tt.name != "vendor error"))
		})
	}
}

func TestDecodeFamilyRules(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{op: OpGetCompanies, want: "Companies not found"},
		{op: OpGetOpportunities, want: "Opportunities not found"},
		{op: OpGetOpportunityRoles, want: "Opportunity Roles not found"},
		{op: OpGetSalesPersons, want: "Sales Persons not found"},
		{op: OpGetNamedAccounts, want: "Named Accounts not found"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			res, err := decode(t, tt.op, `{"success":true,"result":[]}`)
			require.NoError(t, err)
			assert.False(t, res.IsSuccess())
			assert.Equal(t, tt.want, res.Err().Message)

			res, err = decode(t, tt.op, `{"success":true,"result":[{"id":1}]}`)
			require.NoError(t, err)
			assert.True(t, res.IsSuccess())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "invalid json", body: "<html>bad gateway</html>"},
		{name: "missing success", body: `{"requestId":"x","result":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, OpGetLead, tt.body)
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, OpGetLead, decodeErr.Operation)
			assert.Equal(t, http.StatusOK, decodeErr.StatusCode)
		})
	}
}

func TestDecodePaging(t *testing.T) {
	t.Run("token without moreResult", func(t *testing.T) {
		res, err := decode(t, OpGetLeadsByFilter, `{"success":true,"result":[{"id":1}],"nextPageToken":"P1"}`)
		require.NoError(t, err)
		assert.True(t, res.HasMore())
	})

	t.Run("moreResult false", func(t *testing.T) {
		res, err := decode(t, OpGetLeadActivities, `{"success":true,"nextPageToken":"P2","moreResult":false}`)
		require.NoError(t, err)
		assert.False(t, res.HasMore())
		assert.Equal(t, "P2", res.NextPageToken)
	})

	t.Run("no token", func(t *testing.T) {
		res, err := decode(t, OpGetLeadsByFilter, `{"success":true,"result":[]}`)
		require.NoError(t, err)
		assert.False(t, res.HasMore())
	})
}

func TestDecodeWarnings(t *testing.T) {
	res, err := decode(t, OpGetLead, `{"success":true,"result":[],"warnings":["plain",{"code":"1010","message":"partial"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "1010 partial"}, res.Warnings)
}

func TestResultDecode(t *testing.T) {
	res, err := decode(t, OpImportLeadsStatus, `{"success":true,"result":[{"batchId":1001,"status":"Complete","numOfLeadsProcessed":3}]}`)
	require.NoError(t, err)

	var statuses []ImportStatus
	require.NoError(t, res.Decode(&statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, 1001, statuses[0].BatchID)
	assert.True(t, statuses[0].Done())
}
