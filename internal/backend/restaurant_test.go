// ABOUTME: Tests for decoding restaurant, review and menu payloads
// ABOUTME: Covers string-typed numbers and JSON columns sent as encoded strings

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Message(t *testing.T) {
	r := &Response{StatusCode: 422, Body: []byte(`{"message":"The email has already been taken."}`)}
	assert.Equal(t, "The email has already been taken.", r.Message())

	r = &Response{StatusCode: 500, Body: []byte(`<html>oops</html>`)}
	assert.Equal(t, UnknownError, r.Message())
}

func TestResponse_Restaurants(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{
		"success": true,
		"data": {
			"restaurants": [
				{"id": 1, "name": "Luigi's", "rating": "4.5", "price_level": 2, "cuisine_type": "Italian",
				 "phone": "555-0100", "address": "1 Main St",
				 "opening_hours": {"open_now": true}},
				{"id": 2, "name": "Taco Town", "rating": 3.9, "price_level": "moderate",
				 "opening_hours": "{\"open_now\":false}"}
			],
			"count": 2
		}
	}`)}

	got := r.Restaurants()
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Luigi's", got[0].Name)
	assert.Equal(t, "4.5", got[0].Rating)
	assert.Equal(t, int64(2), got[0].PriceLevel.Int())
	assert.Equal(t, "Italian", got[0].Cuisine)
	require.NotNil(t, got[0].OpenNow)
	assert.True(t, *got[0].OpenNow)

	assert.Equal(t, "3.9", got[1].Rating)
	assert.Equal(t, "moderate", got[1].PriceLevel.String())
	require.NotNil(t, got[1].OpenNow)
	assert.False(t, *got[1].OpenNow)
}

func TestResponse_RestaurantsEmpty(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{"data":{"restaurants":[],"count":0}}`)}
	assert.Empty(t, r.Restaurants())

	r = &Response{StatusCode: 200, Body: []byte(`{"data":{}}`)}
	assert.Empty(t, r.Restaurants())
}

func TestResponse_RestaurantLocationAndPhotos(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{"data":{"restaurant":{
		"id": 7, "name": "Harbor", "latitude": "40.71280000", "longitude": "-74.00600000",
		"google_photos": "[{\"photo_reference\":\"abc\",\"height\":1,\"width\":1},{\"url\":\"https://img.example/1.jpg\"},\"https://img.example/2.jpg\"]"
	}}}`)}

	rest, ok := r.Restaurant()
	require.True(t, ok)
	assert.True(t, rest.HasLocation)
	assert.InDelta(t, 40.7128, rest.Latitude, 1e-9)
	assert.InDelta(t, -74.006, rest.Longitude, 1e-9)
	assert.Equal(t, []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}, rest.PhotoURLs)
	assert.Nil(t, rest.OpenNow)
}

func TestResponse_RestaurantMissing(t *testing.T) {
	r := &Response{StatusCode: 404, Body: []byte(`{"success":false,"message":"Restaurant not found"}`)}
	_, ok := r.Restaurant()
	assert.False(t, ok)
}

func TestResponse_Reviews(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{"data":{"reviews":[
		{"reviewer_name": "Sam", "rating": 5, "comment": "Great"},
		{"user": {"name": "Kim"}, "rating": 3, "comment": "Fine"},
		{"rating": 1}
	]}}`)}

	got := r.Reviews()
	require.Len(t, got, 3)
	assert.Equal(t, Review{Reviewer: "Sam", Rating: "5", Comment: "Great"}, got[0])
	assert.Equal(t, "Kim", got[1].Reviewer)
	assert.Equal(t, "Anonymous", got[2].Reviewer)
}

func TestResponse_MenuItems(t *testing.T) {
	r := &Response{StatusCode: 200, Body: []byte(`{"data":{"menu_items":[
		{"name": "Margherita", "price": "9.50", "category": "Pizza"}
	]}}`)}
	assert.Equal(t, []MenuItem{{Name: "Margherita", Price: "9.50", Category: "Pizza"}}, r.MenuItems())

	r = &Response{StatusCode: 200, Body: []byte(`{"data":{"menus":[{"name":"Soup","price":4}]}}`)}
	got := r.MenuItems()
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].Price)
}
